package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/agentcrew/core"
)

func TestExtractHandoffTarget(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"Transferred to: Coder Agent. Proceeding.", "Coder Agent", true},
		{"Transferred to: Tester Agent. Adopt persona immediately.", "Tester Agent", true},
		{"Transferred to: Database Agent", "Database Agent", true},
		{"Transferred to:  Coder Agent . x", "Coder Agent", true},
		{"Transferred to: A. then Transferred to: B. done", "B", true},
		{"Transferred to: .", "", false},
		{"no handoff here", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractHandoffTarget(tt.text)
		assert.Equal(t, tt.wantOK, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestHandoffTextRoundTrip(t *testing.T) {
	got, ok := ExtractHandoffTarget(HandoffText("Research Agent"))
	assert.True(t, ok)
	assert.Equal(t, "Research Agent", got)
}

func TestNewHandoffTool(t *testing.T) {
	h := NewHandoffTool("Coder Agent", "")
	assert.Equal(t, "transfer_to_coder_agent", h.Name())
	assert.Equal(t, "Transfer control to Coder Agent", h.Description())
	assert.Empty(t, h.Parameters()["required"])

	custom := NewHandoffTool("Tester Agent", "Hand over for testing")
	assert.Equal(t, "Hand over for testing", custom.Description())

	assert.NotSame(t, NewHandoffTool("X", ""), NewHandoffTool("X", ""), "handoff tools are not memoized")

	tc := core.NewToolContext(context.Background(), "Orchestrator", "call_9", nil)
	out, err := h.Call(tc, nil)
	assert.NoError(t, err)
	assert.Equal(t, "Transferred to: Coder Agent. Adopt persona immediately.", out)
	assert.Equal(t, core.HandoffTo("Coder Agent"), tc.Effect())
}

func TestSchema(t *testing.T) {
	s := Schema(
		Required("path", "string", "File path"),
		Optional("packages", "list", "Packages", []any{}),
		Param{Name: "weird", Type: "uuid"},
	)
	props := s["properties"].(map[string]any)
	assert.Equal(t, "array", props["packages"].(map[string]any)["type"])
	assert.Equal(t, map[string]any{"type": "string"}, props["packages"].(map[string]any)["items"])
	assert.Equal(t, "string", props["weird"].(map[string]any)["type"])
	assert.Equal(t, []string{"path", "weird"}, s["required"])
}

func TestArgs(t *testing.T) {
	a := Args{"s": "x", "n": float64(3), "b": true, "l": []any{"a", 2}}
	assert.Equal(t, "x", a.String("s"))
	assert.Equal(t, 3, a.Int("n"))
	assert.True(t, a.Bool("b"))
	assert.Equal(t, []string{"a", "2"}, a.Strings("l"))
	assert.Equal(t, "", a.String("missing"))
	assert.False(t, a.Has("missing"))
}
