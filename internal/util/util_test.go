package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONType(t *testing.T) {
	tests := map[string]string{
		"string":  "string",
		"int":     "integer",
		"integer": "integer",
		"float":   "number",
		"bool":    "boolean",
		"list":    "array",
		"dict":    "object",
		"Object":  "object",
		"":        "string",
		"uuid":    "string",
	}
	for in, want := range tests {
		assert.Equal(t, want, JSONType(in), in)
	}
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
			"s": map[string]any{"type": "string"},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": float64(5)}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"x": 5, "extra": true}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": nil}, schema)
	require.Error(t, err)
	assert.ErrorContains(t, err, "required field is missing")
	assert.NoError(t, ValidateParameters(map[string]any{"x": 1, "s": nil}, schema))

	err = ValidateParameters(map[string]any{"x": 1.5}, schema)
	assert.Error(t, err)

	err = ValidateParameters(map[string]any{"x": 1, "s": 3}, schema)
	assert.ErrorContains(t, err, "expected type string")
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{"a"}, RequiredFields(map[string]any{"required": []string{"a"}}))
	assert.Equal(t, []string{"b"}, RequiredFields(map[string]any{"required": []any{"b", 3}}))
	assert.Nil(t, RequiredFields(map[string]any{}))
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain <text>", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain <text>", out)

	out, err = RenderTemplate(`Workspace: {{.Workspace}} <{{upper .Name}}>
{{bullets .Agents}}`, map[string]any{
		"Workspace": ".agent_workspace",
		"Name":      "coder",
		"Agents":    []string{"Coder", "Tester"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Workspace: .agent_workspace <CODER>\n- Coder\n- Tester", out)

	_, err = RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "héé...", Truncate("hééllo", 3))
	assert.Equal(t, "日本...", Truncate("日本語", 2))
	assert.Equal(t, "...", Truncate("x", 0))
	assert.Equal(t, "", Truncate("", 0))

	out := Truncate(strings.Repeat("ü", 10), 5)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("ü", 5)+"...", out)
}
