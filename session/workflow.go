package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/runner"
	"github.com/hupe1980/agentcrew/workspace"
)

// Status is the lifecycle state of a Workflow.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

var (
	// ErrRunning is returned when Start is called while a run is in progress.
	ErrRunning = errors.New("workflow already running")
	// ErrEmptyPrompt is returned when Start is called without a prompt.
	ErrEmptyPrompt = errors.New("prompt must not be empty")
)

// Options configures a Workflow.
type Options struct {
	// Tasks is the task store shown by Tasks and cleared by Reset.
	Tasks         *workspace.TaskStore
	Start         string
	MaxIterations int
	IdleTurns     int
	// Observers are notified in addition to the workflow itself.
	Observers []runner.Observer
	Output    io.Writer
	Logger    logging.Logger
}

// Info is a point-in-time view of a Workflow.
type Info struct {
	ID           string            `json:"id"`
	Status       Status            `json:"workflow_status"`
	Running      bool              `json:"workflow_running"`
	Agents       int               `json:"agents_active"`
	Messages     int               `json:"messages_count"`
	Tasks        int               `json:"tasks_count"`
	CurrentAgent string            `json:"current_agent,omitempty"`
	Iterations   int               `json:"iterations"`
	StopReason   runner.StopReason `json:"stop_reason,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	Error        string            `json:"error,omitempty"`
	StartedAt    time.Time         `json:"started_at,omitzero"`
	FinishedAt   time.Time         `json:"finished_at,omitzero"`
}

// Workflow runs the crew programmatically in the background.
type Workflow struct {
	id     string
	agents []core.Agent
	conv   *core.Conversation
	runner *runner.Runner
	opts   Options

	mu         sync.RWMutex
	status     Status
	current    string
	iterations int
	reason     runner.StopReason
	summary    string
	err        error
	startedAt  time.Time
	finishedAt time.Time
	done       chan struct{}
	cancel     context.CancelFunc
}

// NewWorkflow creates an idle workflow over agents.
func NewWorkflow(id string, agents []core.Agent, optFns ...func(o *Options)) (*Workflow, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if cl, ok := opts.Logger.(*logging.CrewLogger); ok {
		opts.Logger = cl.WithSession(id)
	}

	w := &Workflow{
		id:     id,
		agents: agents,
		conv:   core.NewConversation(),
		opts:   opts,
		status: StatusIdle,
	}

	r, err := runner.New(agents, func(o *runner.Options) {
		o.Start = opts.Start
		o.MaxIterations = opts.MaxIterations
		o.IdleTurns = opts.IdleTurns
		o.Conversation = w.conv
		o.Observers = append([]runner.Observer{w}, opts.Observers...)
		o.Output = opts.Output
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}
	w.runner = r

	return w, nil
}

// ID returns the workflow id.
func (w *Workflow) ID() string { return w.id }

// Agents returns the agents in registration order.
func (w *Workflow) Agents() []core.Agent {
	return append([]core.Agent(nil), w.agents...)
}

// Start clears the previous transcript, seeds prompt and runs the crew on a
// new goroutine. The run is bound to ctx, so callers serving a request should
// pass a context that outlives it. The task file is left untouched.
func (w *Workflow) Start(ctx context.Context, prompt string) error {
	if prompt == "" {
		return ErrEmptyPrompt
	}

	w.mu.Lock()
	if w.status == StatusRunning {
		w.mu.Unlock()
		return ErrRunning
	}
	w.conv.Reset()
	w.status = StatusRunning
	w.current = ""
	w.iterations = 0
	w.reason = ""
	w.summary = ""
	w.err = nil
	w.startedAt = time.Now()
	w.finishedAt = time.Time{}
	done := make(chan struct{})
	w.done = done
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	w.opts.Logger.Info("workflow.start", "workflow", w.id, "prompt_len", len(prompt))

	go func() {
		defer close(done)
		defer cancel()
		res, err := w.runner.RunProgrammatic(ctx, prompt)
		w.finish(res, err)
	}()

	return nil
}

func (w *Workflow) finish(res runner.Result, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.finishedAt = time.Now()
	w.reason = res.Reason
	w.summary = res.Summary
	w.err = err
	if err != nil {
		w.status = StatusError
		w.opts.Logger.Error("workflow.error", "workflow", w.id, "error", err.Error())
		return
	}
	w.status = StatusCompleted
	w.opts.Logger.Info("workflow.completed", "workflow", w.id, "reason", string(res.Reason), "iterations", res.Iterations)
}

// Wait blocks until the current run ends or ctx is done.
func (w *Workflow) Wait(ctx context.Context) error {
	w.mu.RLock()
	done := w.done
	w.mu.RUnlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset cancels a running workflow, waits for it, then clears the
// conversation and the task file.
func (w *Workflow) Reset(ctx context.Context) error {
	w.mu.RLock()
	cancel := w.cancel
	w.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	if err := w.Wait(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.conv.Reset()
	if w.opts.Tasks != nil {
		if err := w.opts.Tasks.Clear(); err != nil {
			return err
		}
	}
	w.status = StatusIdle
	w.current = ""
	w.iterations = 0
	w.reason = ""
	w.summary = ""
	w.err = nil
	w.startedAt = time.Time{}
	w.finishedAt = time.Time{}
	w.done = nil
	w.cancel = nil

	w.opts.Logger.Info("workflow.reset", "workflow", w.id)
	return nil
}

// Status returns the lifecycle state.
func (w *Workflow) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// Info returns a snapshot of the workflow.
func (w *Workflow) Info() Info {
	tasks, _ := w.Tasks()

	w.mu.RLock()
	defer w.mu.RUnlock()

	info := Info{
		ID:           w.id,
		Status:       w.status,
		Running:      w.status == StatusRunning,
		Agents:       len(w.agents),
		Messages:     w.conv.Len(),
		Tasks:        len(tasks),
		CurrentAgent: w.current,
		Iterations:   w.iterations,
		StopReason:   w.reason,
		Summary:      w.summary,
		StartedAt:    w.startedAt,
		FinishedAt:   w.finishedAt,
	}
	if w.err != nil {
		info.Error = w.err.Error()
	}
	return info
}

// Messages returns the last limit messages; limit <= 0 returns all.
func (w *Workflow) Messages(limit int) []core.Message {
	return w.conv.Tail(limit)
}

// Communications returns the last limit messages as communications.
func (w *Workflow) Communications(limit int) []Communication {
	comms := Communications(w.conv.Snapshot())
	if limit > 0 && len(comms) > limit {
		comms = comms[len(comms)-limit:]
	}
	return comms
}

// Tasks reads the task file. Without a task store the list is empty.
func (w *Workflow) Tasks() ([]workspace.Task, error) {
	if w.opts.Tasks == nil {
		return []workspace.Task{}, nil
	}
	tasks, err := w.opts.Tasks.List()
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []workspace.Task{}
	}
	return tasks, nil
}

// OnTurnStart implements runner.Observer.
func (w *Workflow) OnTurnStart(agent string, _ int) {
	w.mu.Lock()
	w.current = agent
	w.mu.Unlock()
}

// OnTurnEnd implements runner.Observer.
func (w *Workflow) OnTurnEnd(_ string, res core.TurnResult, _ time.Duration) {
	w.mu.Lock()
	w.iterations++
	w.current = res.Next
	w.mu.Unlock()
}

// OnStop implements runner.Observer.
func (w *Workflow) OnStop(runner.StopReason, error) {}
