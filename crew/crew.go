package crew

import (
	"embed"
	"errors"
	"fmt"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/knowledge"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/research"
	"github.com/hupe1980/agentcrew/tool"
	"github.com/hupe1980/agentcrew/toolkit"
	"github.com/hupe1980/agentcrew/workspace"
)

const (
	Orchestrator = "Orchestrator Agent"
	Coder        = "Coder Agent"
	Tester       = "Tester Agent"
	Database     = "Database Agent"
	Research     = "Research Agent"
)

// Names lists the crew members in creation order.
var Names = []string{Orchestrator, Coder, Tester, Database, Research}

//go:embed prompts/*.tmpl
var prompts embed.FS

var promptFiles = map[string]string{
	Orchestrator: "prompts/orchestrator.tmpl",
	Coder:        "prompts/coder.tmpl",
	Tester:       "prompts/tester.tmpl",
	Database:     "prompts/database.tmpl",
	Research:     "prompts/research.tmpl",
}

var handoffDescriptions = map[string]string{
	Orchestrator: "Transfer back to Orchestrator Agent with your results",
	Coder:        "Transfer to Coder Agent for implementing functions or fixing code",
	Tester:       "Transfer to Tester Agent for writing and running unit tests",
	Database:     "Transfer to Database Agent for storing or retrieving information in the knowledge base",
	Research:     "Transfer to Research Agent for web search and information gathering",
}

// Deps are the shared resources the crew's tools operate on.
type Deps struct {
	Workspace *workspace.Workspace
	// Model serves every agent without an entry in Options.Clients.
	Model model.Model
	// Knowledge defaults to an in-memory keyword store.
	Knowledge knowledge.Store
	// Searcher defaults to a Serper client without API key.
	Searcher research.Searcher
	Fetcher  *research.Fetcher
}

// Options tune how the agents are built.
type Options struct {
	// Clients overrides the model client per agent name.
	Clients map[string]model.Model
	// Models overrides the model name per agent name.
	Models    map[string]string
	Verbose   bool
	Printer   agent.PrintFunc
	Stream    bool
	OnPartial func(agent, delta string)
	Logger    logging.Logger
	// Instructions overrides the instruction template per agent name.
	Instructions map[string]string
}

// New builds the crew. The returned slice starts with the Orchestrator.
func New(deps Deps, optFns ...func(o *Options)) ([]*agent.Agent, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if deps.Workspace == nil {
		return nil, errors.New("crew: workspace is required")
	}
	if deps.Knowledge == nil {
		deps.Knowledge = knowledge.NewMemoryStore(nil)
	}
	if deps.Searcher == nil {
		deps.Searcher = research.NewSerperClient()
	}
	if deps.Fetcher == nil {
		deps.Fetcher = research.NewFetcher(nil)
	}

	ws := deps.Workspace
	toolsByAgent := map[string][]tool.Tool{
		Orchestrator: concat(
			toolkit.FileTools(ws),
			[]tool.Tool{toolkit.NewFinalizeFunctionTool(ws)},
			toolkit.TaskTools(ws.Tasks()),
			[]tool.Tool{tool.NewFinishTool()},
			handoffs(Coder, Tester, Database, Research),
		),
		Coder:    concat(toolkit.CoderTools(ws), handoffs(Orchestrator)),
		Tester:   concat(toolkit.TesterTools(ws), handoffs(Orchestrator)),
		Database: concat(knowledge.Tools(deps.Knowledge), handoffs(Orchestrator)),
		Research: concat(research.Tools(deps.Searcher, deps.Fetcher), handoffs(Orchestrator)),
	}

	vars := map[string]any{
		"Orchestrator": Orchestrator,
		"Coder":        Coder,
		"Tester":       Tester,
		"Database":     Database,
		"Research":     Research,
		"Workspace":    ws.Dir(),
		"PackageName":  "main",
	}

	agents := make([]*agent.Agent, 0, len(Names))
	for _, name := range Names {
		llm := deps.Model
		if c, ok := opts.Clients[name]; ok && c != nil {
			llm = c
		}
		if llm == nil {
			return nil, fmt.Errorf("crew: no model for %s", name)
		}

		text, ok := opts.Instructions[name]
		if !ok {
			raw, err := prompts.ReadFile(promptFiles[name])
			if err != nil {
				return nil, fmt.Errorf("crew: load prompt for %s: %w", name, err)
			}
			text = string(raw)
		}

		logger := opts.Logger
		if cl, ok := logger.(*logging.CrewLogger); ok {
			logger = cl.WithAgent(name)
		}

		a := agent.New(name, llm, func(o *agent.Options) {
			o.Instruction = agent.NewInstructionFromText(text)
			o.Vars = vars
			o.Model = opts.Models[name]
			o.Tools = toolsByAgent[name]
			o.Verbose = opts.Verbose
			o.Printer = opts.Printer
			o.Stream = opts.Stream
			o.OnPartial = opts.OnPartial
			o.Logger = logger
		})
		agents = append(agents, a)
	}

	opts.Logger.Info("crew.created", "agents", len(agents), "workspace", ws.Dir())

	return agents, nil
}

func handoffs(targets ...string) []tool.Tool {
	out := make([]tool.Tool, len(targets))
	for i, t := range targets {
		out[i] = tool.NewHandoffTool(t, handoffDescriptions[t])
	}
	return out
}

func concat(groups ...[]tool.Tool) []tool.Tool {
	var out []tool.Tool
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
