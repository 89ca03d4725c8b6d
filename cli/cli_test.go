package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erd/document"
	"erd/parser"
)

func noEnv(string) string { return "" }

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd(noEnv)
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseText(t *testing.T) {
	out, _, err := execute(t, "", "parse", "entity Employee(id pk, name)W")
	require.NoError(t, err)
	assert.Contains(t, out, "entity Employee (style W)")
	assert.Contains(t, out, "id (key)")
	assert.Contains(t, out, "  name\n")
}

func TestParseFromStdinAsJSON(t *testing.T) {
	out, _, err := execute(t, "relation Works_On(Hours)[N 1N, S MN]\n", "parse", "-o", "json")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, false, body["isEntity"])
	assert.Equal(t, "Works_On", body["name"])
	assert.Equal(t, []any{[]any{"N", "1N"}, []any{"S", "MN"}}, body["style"])
}

func TestParseYAML(t *testing.T) {
	out, _, err := execute(t, "", "parse", "-o", "yaml", "relation Works_On(Hours)")
	require.NoError(t, err)
	assert.Contains(t, out, "kind: relation")
	assert.Contains(t, out, "name: Works_On")
	assert.Contains(t, out, "- name: Hours")
	assert.Contains(t, out, "isKey: false")
}

func TestParseErrors(t *testing.T) {
	_, _, err := execute(t, "", "parse", "entity Employee(id")
	require.Error(t, err)
	var se *parser.SyntaxError
	assert.True(t, errors.As(err, &se))

	_, _, err = execute(t, "", "parse", "-o", "toml", "entity A(x)")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestLayoutScript(t *testing.T) {
	script := "entity Employee(id pk, name)\n# comment\nrelation Works_On(Hours)\n"
	out, _, err := execute(t, "", "layout", "-t", script)
	require.NoError(t, err)

	var snap document.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Placements, 2)
	assert.Equal(t, "Employee", snap.Placements[0].Title)
	assert.Equal(t, snap.Placements[1].ID, snap.Selected)
}

func TestLayoutFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.erd")
	require.NoError(t, os.WriteFile(path, []byte("entity A(x)\nentity B(y)\nentity C(z)\n"), 0o644))

	out, _, err := execute(t, "", "layout", path)
	require.NoError(t, err)
	var snap document.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Len(t, snap.Placements, 3)
}

func TestLayoutWrappedScript(t *testing.T) {
	script := "entity Employee(\n  id pk,\n  name\n)\nrelation Works_On(Hours)\n  [N 1N, S MN]\n"
	out, _, err := execute(t, script, "layout")
	require.NoError(t, err)

	var snap document.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Placements, 2)
	assert.Equal(t, "Employee", snap.Placements[0].Title)
	assert.Equal(t, "Works_On", snap.Placements[1].Title)
	assert.NotEmpty(t, snap.Placements[1].Group.Members())
}

func TestLayoutReportsLine(t *testing.T) {
	_, _, err := execute(t, "entity A(x)\n\nentity B(y\n", "layout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestRenderASCII(t *testing.T) {
	out, _, err := execute(t, "", "render", "-t", "entity Employee(id pk, name)", "-f", "ascii", "--charset", "ascii")
	require.NoError(t, err)
	assert.Contains(t, out, "Employee")
	assert.Contains(t, out, "+")
	assert.NotContains(t, out, "┌")
}

func TestRenderToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.svg")
	out, errOut, err := execute(t, "", "render", "-t", "entity Employee(id pk, name)", "-f", "svg", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Diagram written")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRenderErrors(t *testing.T) {
	_, _, err := execute(t, "", "render", "-t", "entity A(x)", "-f", "bmp")
	assert.ErrorContains(t, err, "unknown format")

	_, _, err = execute(t, "", "render", "-t", "entity A(x)", "--charset", "ebcdic")
	assert.ErrorContains(t, err, "unknown charset")

	_, _, err = execute(t, "", "render", filepath.Join(t.TempDir(), "missing.erd"))
	assert.ErrorContains(t, err, "failed to open input")
}

func TestFonts(t *testing.T) {
	out, _, err := execute(t, "", "fonts")
	require.NoError(t, err)
	assert.Contains(t, out, "* arial\n")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "erd "), out)
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "", "--log-level", "loud", "fonts")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "erd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export:\n  format: json\n"), 0o644))

	out, _, err := execute(t, "", "--config", path, "render", "-t", "entity A(x)")
	require.NoError(t, err)
	assert.Contains(t, out, `"placements"`)
}

func TestDebugLogging(t *testing.T) {
	_, errOut, err := execute(t, "", "--log-level", "debug", "render", "-t", "entity A(x)")
	require.NoError(t, err)
	assert.Contains(t, errOut, "script drawn")
	assert.Contains(t, errOut, "exported")
}

func TestMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	src := "# Schema\n\n```erd\nentity Employee(id pk, name)\n```\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	_, _, err := execute(t, "", "markdown", "--check", path)
	assert.ErrorContains(t, err, "1 of 1 erd blocks need rendering")

	out, _, err := execute(t, "", "markdown", path)
	require.NoError(t, err)
	assert.Contains(t, out, "<!-- erd:")
	assert.Contains(t, out, "```text")
	assert.Contains(t, out, "Employee")

	_, _, err = execute(t, "", "markdown", "--write", path)
	require.NoError(t, err)
	_, _, err = execute(t, "", "markdown", "--check", path)
	assert.NoError(t, err)

	list, _, err := execute(t, "", "markdown", "--list", path)
	require.NoError(t, err)
	assert.Contains(t, list, "[fresh] entity Employee(id pk, name)")
}
