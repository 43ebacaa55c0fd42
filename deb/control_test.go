package deb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestParseControl(t *testing.T) {
	tests := []struct {
		name  string
		input string
		keys  []string
		want  map[string]string
	}{
		{
			name:  "continuation",
			input: "Package: foo\nVersion: 1.0\nDescription: line one\n line two\n",
			keys:  []string{"Package", "Version", "Description"},
			want:  map[string]string{"Package": "foo", "Version": "1.0", "Description": "line one\nline two"},
		},
		{
			name:  "duplicate key keeps last value and first position",
			input: "Package: foo\nVersion: 1.0\nPackage: bar\n",
			keys:  []string{"Package", "Version"},
			want:  map[string]string{"Package": "bar", "Version": "1.0"},
		},
		{
			name:  "leading continuation is dropped",
			input: " orphan\nPackage: foo\n",
			keys:  []string{"Package"},
			want:  map[string]string{"Package": "foo"},
		},
		{
			name:  "line without colon is ignored",
			input: "Package: foo\nnot a field\nVersion: 2\n",
			keys:  []string{"Package", "Version"},
			want:  map[string]string{"Package": "foo", "Version": "2"},
		},
		{
			name:  "blank line does not end a field",
			input: "Description: one\n\n two\n",
			keys:  []string{"Description"},
			want:  map[string]string{"Description": "one\ntwo"},
		},
		{
			name:  "tab continuation",
			input: "Depends: a,\n\tb\n",
			keys:  []string{"Depends"},
			want:  map[string]string{"Depends": "a,\nb"},
		},
		{
			name:  "value split on first colon only",
			input: "Homepage: https://example.com:8080/x\n",
			keys:  []string{"Homepage"},
			want:  map[string]string{"Homepage": "https://example.com:8080/x"},
		},
		{
			name:  "crlf line ends",
			input: "Package: foo\r\nDescription: a\r\n b\r\n",
			keys:  []string{"Package", "Description"},
			want:  map[string]string{"Package": "foo", "Description": "a\nb"},
		},
		{
			name:  "empty value",
			input: "Essential:\nPackage: foo",
			keys:  []string{"Essential", "Package"},
			want:  map[string]string{"Essential": "", "Package": "foo"},
		},
		{
			name:  "paragraph separator",
			input: "Description: short\n first\n .\n second\n",
			keys:  []string{"Description"},
			want:  map[string]string{"Description": "short\nfirst\n.\nsecond"},
		},
		{
			name: "empty input",
			keys: []string{},
			want: map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseControl(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.keys, c.Keys())
			for k, v := range tt.want {
				got, ok := c.Lookup(k)
				assert.True(t, ok, "missing %s", k)
				assert.Equal(t, v, got, "field %s", k)
			}
			assert.Equal(t, len(tt.want), c.Len())
		})
	}
}

func TestControlParserCommitsPreviousField(t *testing.T) {
	p := newControlParser()
	p.line("Package: foo")
	assert.Equal(t, 0, p.out.Len(), "a field is only committed when the next one starts")
	assert.Equal(t, accumulating, p.state)

	p.line(" more")
	p.line("Version: 1")
	assert.Equal(t, "foo\nmore", p.out.Get("Package"))
	assert.Equal(t, "Version", p.key)

	c := p.finish()
	assert.Equal(t, awaitingKey, p.state)
	assert.Equal(t, "1", c.Get("Version"))
}

func TestParseControlInvalidUTF8(t *testing.T) {
	_, err := ParseControl(strings.NewReader("Package: \xff\xfe\n"))
	assert.Error(t, err)
}

func TestReadControlFile(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadControlFile(filepath.Join(dir, "control"))
	assert.ErrorIs(t, err, ErrControlRead)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(path, []byte{0xff, ':', 0xfe}, 0644))
	_, err = ReadControlFile(path)
	assert.ErrorIs(t, err, ErrControlRead)

	path = filepath.Join(dir, "good")
	require.NoError(t, os.WriteFile(path, []byte("Package: foo\n"), 0644))
	c, err := ReadControlFile(path)
	require.NoError(t, err)
	assert.Equal(t, "foo", c.Get("Package"))
}

func TestControlMarshal(t *testing.T) {
	c := NewControl()
	c.Set("Version", "1.0")
	c.Set("Package", "foo")
	c.Set("Description", "a\nb")

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `{"Version":"1.0","Package":"foo","Description":"a\nb"}`, string(b))

	y, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Less(t, strings.Index(string(y), "Version:"), strings.Index(string(y), "Package:"), string(y))

	var back map[string]string
	require.NoError(t, yaml.Unmarshal(y, &back))
	assert.Equal(t, map[string]string{"Version": "1.0", "Package": "foo", "Description": "a\nb"}, back)
}

func TestControlWriteTo(t *testing.T) {
	c, err := ParseControl(strings.NewReader("Package: foo\nDescription: short\n first\n .\n second\n"))
	require.NoError(t, err)

	var b strings.Builder
	n, err := c.WriteTo(&b)
	require.NoError(t, err)
	assert.Equal(t, int64(b.Len()), n)
	assert.Equal(t, "Package: foo\nDescription: short\n first\n .\n second\n", b.String())

	again, err := ParseControl(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, c.Keys(), again.Keys())
	assert.Equal(t, c.Get("Description"), again.Get("Description"))
}
