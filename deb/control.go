package deb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"
)

// Control is the parsed content of a Debian control file: field names mapped
// to values, in the order fields first appeared.
type Control struct {
	keys   []string
	values map[string]string
}

// NewControl returns an empty Control.
func NewControl() *Control {
	return &Control{values: make(map[string]string)}
}

// Set assigns value to key. A key that is already present keeps its
// position and takes the new value.
func (c *Control) Set(key, value string) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value of key, or "" if it is absent.
func (c *Control) Get(key string) string {
	return c.values[key]
}

// Lookup returns the value of key and whether it is present.
func (c *Control) Lookup(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the field names in insertion order.
func (c *Control) Keys() []string {
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// Len returns the number of fields.
func (c *Control) Len() int { return len(c.keys) }

// MarshalJSON encodes c as a JSON object preserving field order.
func (c *Control) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.values[k])
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// MarshalYAML encodes c as a YAML mapping preserving field order.
func (c *Control) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range c.keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.values[k]},
		)
	}
	return node, nil
}

// WriteTo writes c back in control file syntax. Multi-line values are
// folded onto continuation lines, empty lines becoming " .".
func (c *Control) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for _, k := range c.keys {
		lines := strings.Split(c.values[k], "\n")
		if _, err := fmt.Fprintf(cw, "%s: %s\n", k, lines[0]); err != nil {
			return cw.n, err
		}
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) == "" {
				line = "."
			}
			if _, err := fmt.Fprintf(cw, " %s\n", line); err != nil {
				return cw.n, err
			}
		}
	}
	return cw.n, nil
}

// countingWriter wraps an io.Writer and counts the bytes written.
type countingWriter struct {
	w io.Writer
	n int64
}

// Write writes p to the underlying io.Writer and increments the byte count.
func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// controlState is the state of the control file parser.
type controlState int

const (
	awaitingKey controlState = iota
	accumulating
)

// controlParser folds control file lines into a Control. A field is only
// committed once the next field starts or the input ends.
type controlParser struct {
	state controlState
	key   string
	value strings.Builder
	out   *Control
}

func newControlParser() *controlParser {
	return &controlParser{out: NewControl()}
}

// line feeds one line, without its terminator, to the parser.
func (p *controlParser) line(s string) {
	switch {
	case startsWithSpace(s):
		// Continuation lines with no field to continue are dropped.
		if p.state == accumulating {
			p.value.WriteByte('\n')
			p.value.WriteString(strings.TrimLeftFunc(s, unicode.IsSpace))
		}
	case strings.Contains(s, ":"):
		p.commit()
		key, value, _ := strings.Cut(s, ":")
		p.key = key
		p.value.WriteString(strings.TrimLeftFunc(value, unicode.IsSpace))
		p.state = accumulating
	}
}

// commit stores the pending field, if any, and returns to awaitingKey.
func (p *controlParser) commit() {
	if p.state != accumulating {
		return
	}
	p.out.Set(p.key, strings.TrimSpace(p.value.String()))
	p.key = ""
	p.value.Reset()
	p.state = awaitingKey
}

// finish commits the last field and returns the result.
func (p *controlParser) finish() *Control {
	p.commit()
	return p.out
}

func startsWithSpace(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsSpace(r)
}

// ParseControl parses a control file. Lines starting with whitespace
// continue the previous field, lines holding a colon start a new field and
// any other line is ignored. The last occurrence of a duplicated field wins.
func ParseControl(r io.Reader) (*Control, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("control file is not valid UTF-8")
	}

	p := newControlParser()
	for _, line := range strings.Split(string(content), "\n") {
		p.line(strings.TrimSuffix(line, "\r"))
	}
	return p.finish(), nil
}

// ReadControlFile parses the control file at path. Any failure, including a
// missing file, is an ErrControlRead.
func ReadControlFile(path string) (*Control, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindControlRead, Path: path, Err: err}
	}
	defer f.Close()

	c, err := ParseControl(f)
	if err != nil {
		return nil, &Error{Kind: KindControlRead, Path: path, Err: err}
	}
	return c, nil
}
