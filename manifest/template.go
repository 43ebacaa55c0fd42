package manifest

import (
	"strings"
	"text/template"
)

// templateEngine renders user supplied output templates.
type templateEngine struct {
	funcs template.FuncMap
}

func newTemplateEngine() *templateEngine {
	return &templateEngine{
		funcs: template.FuncMap{
			"join":  strings.Join,
			"lines": func(s string) []string { return strings.Split(s, "\n") },
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
		},
	}
}

// render executes text as a template over data.
// If the text does not contain "{{", it is returned as-is.
func (e *templateEngine) render(name, text string, data interface{}) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	t, err := template.New(name).Funcs(e.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
