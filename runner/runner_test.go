package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/testutil"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/tool"
)

// recorder captures observer callbacks.
type recorder struct {
	starts []string
	ends   []core.TurnResult
	stops  []StopReason
	errs   []error
}

func (r *recorder) OnTurnStart(agent string, _ int) { r.starts = append(r.starts, agent) }
func (r *recorder) OnTurnEnd(_ string, res core.TurnResult, _ time.Duration) {
	r.ends = append(r.ends, res)
}
func (r *recorder) OnStop(reason StopReason, err error) {
	r.stops = append(r.stops, reason)
	r.errs = append(r.errs, err)
}

// lines feeds scripted input and reports io.EOF when exhausted.
func lines(in ...string) InputReader {
	return InputFunc(func() (string, error) {
		if len(in) == 0 {
			return "", io.EOF
		}
		l := in[0]
		in = in[1:]
		return l, nil
	})
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, core.ErrNoAgents)

	a := testutil.NewAgent("A", model.NewScriptedModel("m"))
	_, err = New([]core.Agent{a, testutil.NewAgent("A", model.NewScriptedModel("m"))})
	require.ErrorIs(t, err, core.ErrDuplicateAgent)

	r, err := New([]core.Agent{a, testutil.NewAgent("B", model.NewScriptedModel("m"))})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, r.Agents())
	_, ok := r.Agent("B")
	assert.True(t, ok)
}

func TestRunProgrammatic_HandoffThenIdleStreak(t *testing.T) {
	aLLM := testutil.Repeating("a", model.Calls("", testutil.HandoffCall("B")), model.Text("done"))
	bLLM := testutil.Repeating("b", model.Text("working on it"))

	rec := &recorder{}
	r, err := New([]core.Agent{
		testutil.NewAgent("A", aLLM, tool.NewHandoffTool("B", "")),
		testutil.NewAgent("B", bLLM),
	}, func(o *Options) {
		o.Start = "A"
		o.Observers = []Observer{rec}
	})
	require.NoError(t, err)

	res, err := r.RunProgrammatic(context.Background(), "build a calculator")
	require.NoError(t, err)

	assert.Equal(t, StopIdle, res.Reason)
	assert.Equal(t, "B", res.LastAgent)
	assert.Equal(t, 4, res.Iterations)
	require.Len(t, res.Messages, 6)

	assert.Equal(t, core.RoleUser, res.Messages[0].Role)
	assert.Equal(t, core.RoleAssistant, res.Messages[1].Role)
	assert.Equal(t, core.RoleTool, res.Messages[2].Role)
	assert.Equal(t, tool.HandoffText("B"), res.Messages[2].Content)
	for _, m := range res.Messages[3:] {
		assert.Equal(t, "B", m.Agent)
		assert.Equal(t, "working on it", m.Content)
	}

	assert.Equal(t, []string{"A", "B", "B", "B"}, rec.starts)
	assert.Equal(t, []StopReason{StopIdle}, rec.stops)
	assert.Len(t, bLLM.Requests(), 3)
	assert.Len(t, bLLM.Requests()[0].Messages, 3, "B sees the full buffer")
	assert.False(t, r.Running())
}

func TestRunProgrammatic_Finish(t *testing.T) {
	llm := model.NewScriptedModel("o", model.Calls("", testutil.FinishCall("calculator built")))
	r, err := New([]core.Agent{testutil.NewAgent("Orchestrator Agent", llm, tool.NewFinishTool())})
	require.NoError(t, err)

	res, err := r.RunProgrammatic(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, StopFinished, res.Reason)
	assert.Equal(t, "calculator built", res.Summary)
	assert.Equal(t, 1, res.Iterations)
	assert.Len(t, res.Messages, 3)
}

func TestRunProgrammatic_MaxIterations(t *testing.T) {
	aLLM := testutil.Repeating("a", model.Calls("", testutil.HandoffCall("B")))
	bLLM := testutil.Repeating("b", model.Calls("", testutil.HandoffCall("A")))

	var out bytes.Buffer
	r, err := New([]core.Agent{
		testutil.NewAgent("A", aLLM, tool.NewHandoffTool("B", "")),
		testutil.NewAgent("B", bLLM, tool.NewHandoffTool("A", "")),
	}, func(o *Options) {
		o.MaxIterations = 5
		o.Output = &out
	})
	require.NoError(t, err)

	res, err := r.RunProgrammatic(context.Background(), "ping pong")
	require.NoError(t, err)
	assert.Equal(t, StopMaxIterations, res.Reason)
	assert.Equal(t, 5, res.Iterations)
	assert.Len(t, res.Messages, 11)
	assert.Contains(t, out.String(), "Reached maximum iterations (5)")
}

func TestRunProgrammatic_UnknownAgent(t *testing.T) {
	llm := model.NewScriptedModel("a", model.Calls("", testutil.HandoffCall("Ghost")))
	r, err := New([]core.Agent{testutil.NewAgent("A", llm, tool.NewHandoffTool("Ghost", ""))})
	require.NoError(t, err)

	res, err := r.RunProgrammatic(context.Background(), "hi")
	require.ErrorIs(t, err, core.ErrAgentNotFound)
	assert.Equal(t, StopAgentNotFound, res.Reason)
	assert.Equal(t, "Ghost", res.LastAgent)
	assert.Len(t, res.Messages, 3)
}

func TestRunProgrammatic_ModelErrorIsReturned(t *testing.T) {
	boom := errors.New("rate limited")
	llm := model.NewScriptedModel("a").FailAt(0, boom)
	rec := &recorder{}
	r, err := New([]core.Agent{testutil.NewAgent("A", llm)}, func(o *Options) { o.Observers = []Observer{rec} })
	require.NoError(t, err)

	res, err := r.RunProgrammatic(context.Background(), "hi")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StopError, res.Reason)
	assert.Len(t, res.Messages, 1)
	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], boom)
}

func TestRunProgrammatic_Cancelled(t *testing.T) {
	llm := model.NewScriptedModel("a", model.Text("x"))
	r, err := New([]core.Agent{testutil.NewAgent("A", llm)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.RunProgrammatic(ctx, "hi")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCancelled, res.Reason)
	assert.Empty(t, llm.Requests())
}

func TestRunInteractive_QuitAndEmptyInput(t *testing.T) {
	llm := model.NewScriptedModel("a", model.Text("hello"), model.Text("bye"))
	var out bytes.Buffer
	r, err := New([]core.Agent{testutil.NewAgent("A", llm)}, func(o *Options) { o.Output = &out })
	require.NoError(t, err)

	res, err := r.RunInteractive(context.Background(), lines("hi", "", "  ", "more", "QUIT"))
	require.NoError(t, err)

	assert.Equal(t, StopQuit, res.Reason)
	assert.Equal(t, 2, res.Iterations)
	require.Len(t, res.Messages, 4)
	assert.Equal(t, "hi", res.Messages[0].Content)
	assert.Equal(t, "hello", res.Messages[1].Content)
	assert.Equal(t, "more", res.Messages[2].Content)
	assert.Equal(t, "bye", res.Messages[3].Content)
	assert.Contains(t, out.String(), "Goodbye")
}

func TestRunInteractive_HandoffRunsWithoutInput(t *testing.T) {
	aLLM := model.NewScriptedModel("a", model.Calls("", testutil.HandoffCall("B")))
	bLLM := model.NewScriptedModel("b", model.Text("B here"))
	r, err := New([]core.Agent{
		testutil.NewAgent("A", aLLM, tool.NewHandoffTool("B", "")),
		testutil.NewAgent("B", bLLM),
	})
	require.NoError(t, err)

	res, err := r.RunInteractive(context.Background(), lines("hello"))
	require.NoError(t, err)

	assert.Equal(t, StopInputClosed, res.Reason)
	assert.Equal(t, "B", res.LastAgent)
	assert.Equal(t, 2, res.Iterations)
	assert.Len(t, res.Messages, 4)
}

func TestRunInteractive_ErrorAsksForInput(t *testing.T) {
	llm := model.NewScriptedModel("a", model.Text("recovered")).FailAt(0, errors.New("timeout"))
	var out bytes.Buffer
	r, err := New([]core.Agent{testutil.NewAgent("A", llm)}, func(o *Options) { o.Output = &out })
	require.NoError(t, err)

	res, err := r.RunInteractive(context.Background(), lines("first", "second", "exit"))
	require.NoError(t, err)

	assert.Equal(t, StopQuit, res.Reason)
	assert.Contains(t, out.String(), "Error running A: ")
	require.Len(t, res.Messages, 3)
	assert.Equal(t, "first", res.Messages[0].Content)
	assert.Equal(t, "second", res.Messages[1].Content)
	assert.Equal(t, "recovered", res.Messages[2].Content)
}

func TestRunInteractive_FinishWaitsForInput(t *testing.T) {
	llm := model.NewScriptedModel("o",
		model.Calls("", core.ToolCall{Name: tool.FinishToolName, Arguments: `{"summary":"ok"}`}),
	)
	var out bytes.Buffer
	r, err := New([]core.Agent{testutil.NewAgent("O", llm, tool.NewFinishTool())}, func(o *Options) { o.Output = &out })
	require.NoError(t, err)

	res, err := r.RunInteractive(context.Background(), lines("go", "quit"))
	require.NoError(t, err)
	assert.Equal(t, StopQuit, res.Reason)
	assert.Len(t, llm.Requests(), 1)
	assert.Contains(t, out.String(), "Workflow finished: ok")
}

func TestRunInteractive_MaxIterations(t *testing.T) {
	llm := testutil.Repeating("a", model.Calls("", testutil.HandoffCall("A")))
	r, err := New([]core.Agent{testutil.NewAgent("A", llm, tool.NewHandoffTool("A", ""))}, func(o *Options) {
		o.MaxIterations = 3
	})
	require.NoError(t, err)

	res, err := r.RunInteractive(context.Background(), lines("loop"))
	require.NoError(t, err)
	assert.Equal(t, StopMaxIterations, res.Reason)
	assert.Equal(t, 3, res.Iterations)
}

func TestRunInteractive_FailedTurnsCountTowardCap(t *testing.T) {
	llm := model.NewScriptedModel("a")
	var out bytes.Buffer
	r, err := New([]core.Agent{testutil.NewAgent("A", llm)}, func(o *Options) {
		o.MaxIterations = 2
		o.Output = &out
	})
	require.NoError(t, err)

	res, err := r.RunInteractive(context.Background(), lines("one", "two", "three", "four"))
	require.NoError(t, err)

	assert.Equal(t, StopMaxIterations, res.Reason)
	assert.Equal(t, 2, res.Iterations)
	assert.Len(t, llm.Requests(), 2)
	require.Len(t, res.Messages, 3)
	assert.Equal(t, "three", res.Messages[2].Content)
	assert.Equal(t, 2, strings.Count(out.String(), "Error running A: "))
	assert.Contains(t, out.String(), "Reached maximum iterations (2). Ending conversation.")
}

func TestRunner_RejectsConcurrentRuns(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	input := InputFunc(func() (string, error) {
		close(started)
		<-block
		return "", io.EOF
	})

	r, err := New([]core.Agent{testutil.NewAgent("A", model.NewScriptedModel("a"))})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := r.RunInteractive(context.Background(), input)
		done <- err
	}()

	<-started
	assert.True(t, r.Running())
	_, err = r.RunProgrammatic(context.Background(), "x")
	require.ErrorIs(t, err, ErrAlreadyRunning)

	close(block)
	require.NoError(t, <-done)
	assert.False(t, r.Running())
}

func TestLineReader(t *testing.T) {
	var out bytes.Buffer
	lr := NewLineReader(strings.NewReader("one\ntwo\n"), &out, "> ")

	l, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "one", l)
	l, err = lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "two", l)
	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > ", out.String())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	again, err := NewMetrics(reg)
	require.NoError(t, err, "registering twice reuses collectors")

	aLLM := model.NewScriptedModel("a", model.Calls("", testutil.HandoffCall("B")))
	bLLM := testutil.Repeating("b", model.Text("idle"))
	r, err := New([]core.Agent{
		testutil.NewAgent("A", aLLM, tool.NewHandoffTool("B", "")),
		testutil.NewAgent("B", bLLM),
	}, func(o *Options) { o.Observers = []Observer{m} })
	require.NoError(t, err)

	_, err = r.RunProgrammatic(context.Background(), "go")
	require.NoError(t, err)

	assert.InDelta(t, 1, promtest.ToFloat64(m.turns.WithLabelValues("A")), 0)
	assert.InDelta(t, 3, promtest.ToFloat64(again.turns.WithLabelValues("B")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(m.handoffs.WithLabelValues("A", "B")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(m.toolCalls.WithLabelValues("A")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(m.stops.WithLabelValues(string(StopIdle))), 0)
	assert.Equal(t, 2, promtest.CollectAndCount(m.turnDuration))
}
