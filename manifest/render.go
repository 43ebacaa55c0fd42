package manifest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/deb-unpack/deb"
	"go.yaml.in/yaml/v3"
)

// Format selects how Render prints a package.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatControl Format = "control"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatYAML, FormatControl:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q, expected json, yaml or control", s)
	}
}

// View is the data handed to output templates.
type View struct {
	Info    *PackageInstallInfo
	Control *deb.Control
}

// Render writes v to w. A non-empty tmpl is executed as a text/template over
// v and takes precedence over format.
func Render(w io.Writer, format Format, tmpl string, v View) error {
	if tmpl != "" {
		out, err := newTemplateEngine().render("output", tmpl, v)
		if err != nil {
			return fmt.Errorf("rendering template: %w", err)
		}
		_, err = io.WriteString(w, out)
		return err
	}

	switch format {
	case FormatControl:
		_, err := v.Control.WriteTo(w)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v.Info); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v.Info)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
