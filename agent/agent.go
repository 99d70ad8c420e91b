package agent

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/tool"
)

// PrintFunc receives the visible text of an agent reply in verbose mode.
type PrintFunc func(agent, text string)

// StdoutPrinter prints "\n{agent}: {text}" to standard output.
func StdoutPrinter(agent, text string) {
	fmt.Fprintf(os.Stdout, "\n%s: %s\n", agent, text)
}

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	Instruction Instruction
	// Vars are template variables available to the instruction.
	Vars map[string]any
	// Model overrides the model name the provider is configured with.
	Model string
	Tools []tool.Tool
	// Verbose prints every non-empty reply through Printer.
	Verbose bool
	Printer PrintFunc
	// Stream requests partial responses; deltas go to OnPartial.
	Stream    bool
	OnPartial func(agent, delta string)
	Logger    logging.Logger
}

// Agent is a role-specialized conversational unit: a name, an instruction
// (persona), a private tool registry and a model client. It is stateless
// between turns; the shared conversation is owned by the runner.
type Agent struct {
	name        string
	llm         model.Model
	instruction Instruction
	vars        map[string]any
	modelName   string
	registry    *tool.Registry
	verbose     bool
	printer     PrintFunc
	stream      bool
	onPartial   func(agent, delta string)
	logger      logging.Logger
	mu          sync.RWMutex
}

// New creates an agent named name backed by llm.
//
// The agent is initialized with:
//   - A generic instruction ("You are {name}, a helpful AI assistant.")
//   - An empty tool registry
//   - Verbose output disabled, printing to stdout when enabled
func New(name string, llm model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Instruction: NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		Printer:     StdoutPrinter,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Printer == nil {
		opts.Printer = StdoutPrinter
	}

	registry := tool.NewRegistry(func(o *tool.RegistryOptions) { o.Logger = opts.Logger })
	registry.Register(opts.Tools...)

	return &Agent{
		name:        name,
		llm:         llm,
		instruction: opts.Instruction,
		vars:        opts.Vars,
		modelName:   opts.Model,
		registry:    registry,
		verbose:     opts.Verbose,
		printer:     opts.Printer,
		stream:      opts.Stream,
		onPartial:   opts.OnPartial,
		logger:      opts.Logger,
	}
}

// Name returns the agent's identity. Names are matched case-sensitively.
func (a *Agent) Name() string { return a.name }

// Model returns the configured model selector, falling back to the provider's model.
func (a *Agent) Model() string {
	if a.modelName != "" {
		return a.modelName
	}
	if a.llm == nil {
		return ""
	}
	return a.llm.Info().Name
}

// Registry exposes the agent's private tool registry.
func (a *Agent) Registry() *tool.Registry { return a.registry }

// AddTool registers tools with the agent.
func (a *Agent) AddTool(tools ...tool.Tool) { a.registry.Register(tools...) }

// RemoveTool unregisters every tool with the given name.
func (a *Agent) RemoveTool(name string) bool { return a.registry.Remove(name) }

// ToolNames returns the names of the registered tools.
func (a *Agent) ToolNames() []string { return a.registry.Names() }

// SetVerbose toggles printing of replies.
func (a *Agent) SetVerbose(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.verbose = v
}

// UpdateInstructions replaces the agent's instruction template.
func (a *Agent) UpdateInstructions(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.instruction = NewInstructionFromText(text)
}

// Instructions resolves the current instruction text.
func (a *Agent) Instructions(ctx context.Context) (string, error) {
	a.mu.RLock()
	inst := a.instruction
	a.mu.RUnlock()

	return inst.Resolve(InstructionContext{Context: ctx, Agent: a.name, Vars: a.vars})
}

// Config is a read-only description of an agent.
type Config struct {
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Instructions string   `json:"instructions"`
	NumTools     int      `json:"num_tools"`
	ToolNames    []string `json:"tool_names"`
}

// Config returns the agent's configuration. Unresolvable instructions are
// reported as the resolution error text.
func (a *Agent) Config() Config {
	inst, err := a.Instructions(context.Background())
	if err != nil {
		inst = "error: " + err.Error()
	}
	names := a.ToolNames()
	return Config{Name: a.name, Model: a.Model(), Instructions: inst, NumTools: len(names), ToolNames: names}
}

// Run performs exactly one turn: it sends the instruction plus the full
// history to the model, records the reply, dispatches every requested tool
// call sequentially and reports the next agent.
//
// Tool failures never surface as errors; they become tool message text. Only
// instruction resolution and model failures are returned.
func (a *Agent) Run(ctx context.Context, history []core.Message) (core.TurnResult, error) {
	start := time.Now()

	instructions, err := a.Instructions(ctx)
	if err != nil {
		return core.TurnResult{}, fmt.Errorf("agent %q: resolve instructions: %w", a.name, err)
	}

	a.mu.RLock()
	verbose := a.verbose
	a.mu.RUnlock()

	req := model.Request{
		Model:        a.modelName,
		Instructions: instructions,
		Messages:     copyMessages(history),
		Tools:        a.registry.Describe(),
		Stream:       a.stream,
	}

	var onPartial func(string)
	if a.stream && a.onPartial != nil {
		onPartial = func(delta string) { a.onPartial(a.name, delta) }
	}

	a.logger.Debug("agent.turn.start", "agent", a.name, "history", len(history), "tools", len(req.Tools))

	llmStart := time.Now()
	resp, err := model.Complete(ctx, a.llm, req, onPartial)
	if err != nil {
		logging.LogLLMCall(a.logger, a.Model(), 0, time.Since(llmStart), err, "agent", a.name)
		return core.TurnResult{}, fmt.Errorf("agent %q: model call: %w", a.name, err)
	}
	logging.LogLLMCall(a.logger, a.Model(), totalTokens(resp.Usage), time.Since(llmStart), nil, "agent", a.name, "tool_calls", len(resp.ToolCalls))

	calls := make([]core.ToolCall, len(resp.ToolCalls))
	for i, c := range resp.ToolCalls {
		if c.ID == "" {
			c.ID = core.NewID("call_")
		}
		calls[i] = c
	}

	if verbose && resp.Text != "" {
		a.printer(a.name, resp.Text)
	}

	result := core.TurnResult{
		Next:     a.name,
		Messages: []core.Message{core.NewAssistantMessage(a.name, resp.Text, calls...)},
	}

	for _, call := range calls {
		res := a.registry.Dispatch(ctx, a.name, call)
		result.Messages = append(result.Messages, core.NewToolMessage(a.name, call.ID, call.Name, res.Content))
		result.ToolCalls++

		switch {
		case res.Effect.IsHandoff():
			result.Next = res.Effect.Target
			result.Handoff = true
		case res.Effect.IsFinish():
			result.Finished = true
			result.Summary = res.Effect.Summary
		}
	}

	logging.LogTurn(a.logger, a.name, result.Next, len(result.Messages), time.Since(start), "tool_calls", result.ToolCalls)

	return result, nil
}

func copyMessages(in []core.Message) []core.Message {
	out := make([]core.Message, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

func totalTokens(u *model.TokenUsage) int {
	if u == nil {
		return 0
	}
	return u.TotalTokens
}
