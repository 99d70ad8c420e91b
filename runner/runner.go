package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
)

const (
	// DefaultInteractiveMaxIterations caps agent turns in interactive mode.
	DefaultInteractiveMaxIterations = 100
	// DefaultProgrammaticMaxIterations caps agent turns in programmatic mode.
	DefaultProgrammaticMaxIterations = 20
	// DefaultIdleTurns is the idle streak that ends a programmatic run.
	DefaultIdleTurns = 3
)

// StopReason tells why a run ended.
type StopReason string

const (
	StopFinished      StopReason = "finished"
	StopIdle          StopReason = "idle"
	StopMaxIterations StopReason = "max_iterations"
	StopQuit          StopReason = "quit"
	StopInputClosed   StopReason = "input_closed"
	StopAgentNotFound StopReason = "agent_not_found"
	StopError         StopReason = "error"
	StopCancelled     StopReason = "cancelled"
)

// Observer is notified about turns and the end of a run. Implementations must
// not block.
type Observer interface {
	OnTurnStart(agent string, iteration int)
	OnTurnEnd(agent string, res core.TurnResult, dur time.Duration)
	OnStop(reason StopReason, err error)
}

// InputReader supplies user lines in interactive mode. io.EOF ends the run.
type InputReader interface {
	ReadLine() (string, error)
}

// Options configures a Runner.
type Options struct {
	// Start is the first agent; defaults to the first registered agent.
	Start string
	// MaxIterations overrides the per-mode iteration cap when positive.
	MaxIterations int
	// IdleTurns is the idle streak that ends a programmatic run.
	IdleTurns int
	// Conversation is the buffer the runner appends to. Sharing it lets other
	// goroutines read snapshots while a run is in progress.
	Conversation *core.Conversation
	Observers    []Observer
	// Output receives progress reports meant for humans.
	Output io.Writer
	Logger logging.Logger
}

// Result summarizes a finished run.
type Result struct {
	Messages   []core.Message
	Iterations int
	Reason     StopReason
	LastAgent  string
	// Summary is the finish_workflow summary when Reason is StopFinished.
	Summary string
}

// Runner coordinates agent turns over a shared conversation. Only one run may
// be active at a time; public methods are safe for concurrent use.
type Runner struct {
	agents map[string]core.Agent
	order  []string
	conv   *core.Conversation
	opts   Options

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// ErrAlreadyRunning is returned when a run is started while another is active.
var ErrAlreadyRunning = errors.New("runner: a run is already in progress")

// New creates a runner over agents. Names must be unique.
func New(agents []core.Agent, optFns ...func(o *Options)) (*Runner, error) {
	if len(agents) == 0 {
		return nil, core.ErrNoAgents
	}

	opts := Options{
		IdleTurns: DefaultIdleTurns,
		Output:    io.Discard,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.IdleTurns <= 0 {
		opts.IdleTurns = DefaultIdleTurns
	}

	r := &Runner{agents: make(map[string]core.Agent, len(agents)), opts: opts}
	for _, a := range agents {
		if _, dup := r.agents[a.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateAgent, a.Name())
		}
		r.agents[a.Name()] = a
		r.order = append(r.order, a.Name())
	}

	if r.opts.Start == "" {
		r.opts.Start = r.order[0]
	}
	r.conv = opts.Conversation
	if r.conv == nil {
		r.conv = core.NewConversation()
	}

	return r, nil
}

// Agents returns the agent names in registration order.
func (r *Runner) Agents() []string {
	return append([]string(nil), r.order...)
}

// Agent looks up an agent by exact name.
func (r *Runner) Agent(name string) (core.Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Conversation returns the buffer the runner appends to.
func (r *Runner) Conversation() *core.Conversation { return r.conv }

// Cancel stops the active run before its next turn.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Running reports whether a run is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Runner) begin(ctx context.Context) (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil, ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	return ctx, nil
}

func (r *Runner) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	r.running = false
	r.cancel = nil
}

func (r *Runner) maxIterations(def int) int {
	if r.opts.MaxIterations > 0 {
		return r.opts.MaxIterations
	}
	return def
}

// RunProgrammatic appends prompt as a user message and runs agents without
// further input. An agent failure ends the run and is returned.
func (r *Runner) RunProgrammatic(ctx context.Context, prompt string) (Result, error) {
	ctx, err := r.begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer r.end()

	if prompt != "" {
		r.conv.Append(core.NewUserMessage(prompt))
	}

	limiter := core.NewIterationLimiter(r.maxIterations(DefaultProgrammaticMaxIterations))
	current := r.opts.Start
	idle := 0
	res := Result{}

	r.report("Starting workflow with: %s", prompt)
	r.report("Available agents: %s", strings.Join(r.order, ", "))
	r.opts.Logger.Info("runner.start", "mode", "programmatic", "agent", current, "max_iterations", limiter.Max())

	for {
		if ctx.Err() != nil {
			return r.stop(res, current, StopCancelled, ctx.Err())
		}

		a, ok := r.agents[current]
		if !ok {
			r.report("Error: Agent '%s' not found", current)
			return r.stop(res, current, StopAgentNotFound, fmt.Errorf("%w: %s", core.ErrAgentNotFound, current))
		}

		if err := limiter.Increment(); err != nil {
			r.report("Reached maximum iterations (%d). Ending workflow.", limiter.Max())
			return r.stop(res, current, StopMaxIterations, nil)
		}
		res.Iterations = limiter.Count()

		r.report("Running %s...", current)
		turn, err := r.turn(ctx, a, res.Iterations-1)
		if err != nil {
			r.report("Error running %s: %v", current, err)
			if ctx.Err() != nil {
				return r.stop(res, current, StopCancelled, err)
			}
			return r.stop(res, current, StopError, err)
		}

		if turn.Finished {
			res.Summary = turn.Summary
			r.report("Workflow finished by %s", current)
			return r.stop(res, current, StopFinished, nil)
		}

		if turn.Idle() {
			idle++
		} else {
			idle = 0
		}
		if idle >= r.opts.IdleTurns {
			r.report("%s completed its task", current)
			return r.stop(res, current, StopIdle, nil)
		}

		current = turn.Next
	}
}

// RunInteractive alternates between user input and agent turns until the
// user quits, input ends or the iteration cap is reached. Agent failures are
// reported and the runner waits for the next user line.
func (r *Runner) RunInteractive(ctx context.Context, input InputReader) (Result, error) {
	ctx, err := r.begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer r.end()

	limiter := core.NewIterationLimiter(r.maxIterations(DefaultInteractiveMaxIterations))
	current := r.opts.Start
	res := Result{}
	awaitInput := false

	r.report("Type 'quit' or 'exit' to end the conversation")
	r.report("%s", strings.Repeat("-", 50))
	r.opts.Logger.Info("runner.start", "mode", "interactive", "agent", current, "max_iterations", limiter.Max())

	for {
		if ctx.Err() != nil {
			return r.stop(res, current, StopCancelled, ctx.Err())
		}

		a, ok := r.agents[current]
		if !ok {
			r.report("Error: Agent '%s' not found", current)
			return r.stop(res, current, StopAgentNotFound, fmt.Errorf("%w: %s", core.ErrAgentNotFound, current))
		}

		if awaitInput || r.needsInput() {
			line, err := input.ReadLine()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return r.stop(res, current, StopInputClosed, nil)
				}
				return r.stop(res, current, StopError, fmt.Errorf("read input: %w", err))
			}
			line = strings.TrimSpace(line)
			if isQuit(line) {
				r.report("Ending conversation. Goodbye!")
				return r.stop(res, current, StopQuit, nil)
			}
			if line == "" {
				continue
			}
			r.conv.Append(core.NewUserMessage(line))
			awaitInput = false
		}

		// Failed turns count too; the cap guards against runaway loops.
		if err := limiter.Increment(); err != nil {
			r.report("Reached maximum iterations (%d). Ending conversation.", limiter.Max())
			return r.stop(res, current, StopMaxIterations, nil)
		}
		res.Iterations = limiter.Count()

		turn, err := r.turn(ctx, a, res.Iterations-1)
		if err != nil {
			if ctx.Err() != nil {
				return r.stop(res, current, StopCancelled, err)
			}
			r.report("Error running %s: %v", current, err)
			awaitInput = true
			continue
		}

		if turn.Finished {
			if turn.Summary != "" {
				r.report("Workflow finished: %s", turn.Summary)
			}
			awaitInput = true
		}
		current = turn.Next
	}
}

func isQuit(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit":
		return true
	}
	return false
}

func (r *Runner) needsInput() bool {
	last, ok := r.conv.Last()
	return !ok || last.Role == core.RoleAssistant
}

func (r *Runner) turn(ctx context.Context, a core.Agent, iteration int) (core.TurnResult, error) {
	for _, o := range r.opts.Observers {
		o.OnTurnStart(a.Name(), iteration)
	}

	start := time.Now()
	res, err := a.Run(ctx, r.conv.Snapshot())
	if err != nil {
		r.opts.Logger.Error("runner.turn.error", "agent", a.Name(), "error", err.Error())
		return core.TurnResult{}, err
	}
	if res.Next == "" {
		res.Next = a.Name()
	}
	r.conv.Append(res.Messages...)
	dur := time.Since(start)

	for _, o := range r.opts.Observers {
		o.OnTurnEnd(a.Name(), res, dur)
	}
	if res.Handoff && res.Next != a.Name() {
		r.opts.Logger.Info("runner.handoff", "from", a.Name(), "to", res.Next)
	}

	return res, nil
}

func (r *Runner) stop(res Result, current string, reason StopReason, err error) (Result, error) {
	res.Reason = reason
	res.LastAgent = current
	res.Messages = r.conv.Snapshot()

	for _, o := range r.opts.Observers {
		o.OnStop(reason, err)
	}

	if err != nil {
		r.opts.Logger.Warn("runner.stop", "reason", string(reason), "iterations", res.Iterations, "error", err.Error())
	} else {
		r.opts.Logger.Info("runner.stop", "reason", string(reason), "iterations", res.Iterations, "messages", len(res.Messages))
	}
	r.report("Generated %d messages total", len(res.Messages))

	return res, err
}

func (r *Runner) report(format string, args ...any) {
	fmt.Fprintf(r.opts.Output, format+"\n", args...)
}
