package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/model"
)

var _ model.Model = (*Model)(nil)

func TestBuildMessages(t *testing.T) {
	req := model.Request{
		Instructions: "You are the Coder Agent.",
		Messages: []core.Message{
			core.NewUserMessage("write add"),
			core.NewAssistantMessage("Coder", "", core.ToolCall{ID: "c1", Name: "create_function", Arguments: ""}),
			core.NewToolMessage("Coder", "c1", "create_function", `{"status":"success"}`),
			core.NewAssistantMessage("Coder", "done"),
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 5)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	require.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "{}", msgs[2].OfAssistant.ToolCalls[0].Function.Arguments, "empty arguments are sent as an empty object")
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)
	assert.NotNil(t, msgs[4].OfAssistant)
}

func TestBuildParams(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "gpt-4o" })

	params := m.buildParams(model.Request{}, nil)
	assert.Equal(t, "gpt-4o", params.Model)
	assert.Empty(t, params.Tools)

	params = m.buildParams(model.Request{
		Model: "llama3.1",
		Tools: []core.ToolSpec{{Name: "read_file", Description: "Read a file", Parameters: map[string]any{"type": "object"}}},
	}, nil)
	assert.Equal(t, "llama3.1", params.Model)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "read_file", params.Tools[0].Function.Name)

	assert.Equal(t, model.Info{Name: "gpt-4o", Provider: "openai", SupportsTools: true}, m.Info())
}

func TestOrderedCalls(t *testing.T) {
	agg := map[int64]*aggCall{
		2: {id: "c", name: "third", args: "{}"},
		0: {id: "a", name: "first", args: `{"x":1}`},
		1: {id: "b", name: "second"},
	}
	calls := orderedCalls(agg)
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{calls[0].Name, calls[1].Name, calls[2].Name})
	assert.Nil(t, orderedCalls(nil))
}

func TestGenerate_StreamStopsWhenContextEnds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for i := 0; i < 64; i++ {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"w%d \"}}]}\n\n", i)
			if flusher != nil {
				flusher.Flush()
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.BaseURL = srv.URL
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, errCh := m.Generate(ctx, model.Request{Stream: true, Messages: []core.Message{core.NewUserMessage("hi")}})

	// Nobody reads out, so the producer blocks once the buffer is full.
	require.Eventually(t, func() bool { return len(out) == cap(out) }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("generate goroutine still blocked after cancellation")
	}
}
