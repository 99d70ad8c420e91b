// Package agentcrew wires configuration into a ready-to-run crew: the model
// client, workspace, knowledge store, research clients, the five agents and
// the conversation runner. Most applications only need:
//  1. config.Load to read settings
//  2. New to build the crew
//  3. RunProgrammatic, RunInteractive or NewWorkflow to drive it
package agentcrew

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/config"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/crew"
	"github.com/hupe1980/agentcrew/knowledge"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/model/anthropic"
	"github.com/hupe1980/agentcrew/model/openai"
	"github.com/hupe1980/agentcrew/research"
	"github.com/hupe1980/agentcrew/runner"
	"github.com/hupe1980/agentcrew/session"
	"github.com/hupe1980/agentcrew/workspace"
)

// DefaultOllamaModel is used for the ollama provider when no model is configured.
const DefaultOllamaModel = "llama3.1"

// Options overrides parts of the wiring. Unset fields are built from the config.
type Options struct {
	// Model replaces the provider client built from the config.
	Model     model.Model
	Knowledge knowledge.Store
	Searcher  research.Searcher
	// CommandRunner executes go commands for the test tools.
	CommandRunner workspace.CommandRunner
	// BaseDir resolves a relative workspace directory.
	BaseDir   string
	Printer   agent.PrintFunc
	OnPartial func(agent, delta string)
	// Output receives runner progress reports.
	Output io.Writer
	// Registerer receives the runner metrics; nil disables metrics.
	Registerer prometheus.Registerer
	Logger     logging.Logger
}

// Crew is a configured agent set with its shared resources.
type Crew struct {
	cfg       *config.Config
	ws        *workspace.Workspace
	agents    []*agent.Agent
	knowledge knowledge.Store
	metrics   *runner.Metrics
	opts      Options
}

// NewLogger builds the structured logger described by cfg.
func NewLogger(cfg *config.Config, out io.Writer) *logging.CrewLogger {
	if out == nil {
		out = os.Stderr
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		Output:    out,
		Component: "agentcrew",
	})
}

// NewModel creates the provider client selected by cfg.
func NewModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.Anthropic.APIKey
		}), nil
	case config.ProviderOpenAI, config.ProviderOllama:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.OpenAI.APIKey
			o.BaseURL = cfg.BaseURL()
			if cfg.Model != "" {
				o.Model = cfg.Model
			} else if cfg.Provider == config.ProviderOllama {
				o.Model = DefaultOllamaModel
			}
			if o.APIKey == "" && cfg.Provider == config.ProviderOllama {
				o.APIKey = "ollama"
			}
		}), nil
	}
	return nil, errors.New("agentcrew: unknown provider " + cfg.Provider)
}

// NewKnowledgeStore returns a chromem vector store with OpenAI embeddings
// when an OpenAI key is available and an in-memory keyword store otherwise.
func NewKnowledgeStore(cfg *config.Config, logger logging.Logger) (knowledge.Store, error) {
	if cfg.OpenAI.APIKey == "" {
		return knowledge.NewMemoryStore(nil), nil
	}
	embedder, err := knowledge.NewOpenAIEmbedder(func(o *knowledge.OpenAIEmbedderOptions) {
		o.APIKey = cfg.OpenAI.APIKey
		o.BaseURL = cfg.OpenAI.BaseURL
		if cfg.Knowledge.EmbeddingModel != "" {
			o.Model = cfg.Knowledge.EmbeddingModel
		}
	})
	if err != nil {
		return nil, err
	}
	return knowledge.NewVectorStore(embedder, func(o *knowledge.VectorStoreOptions) {
		o.PersistDir = cfg.Knowledge.Dir
		o.Logger = logger
	})
}

// RoleOf maps an agent name to its config role: "Coder Agent" becomes "coder".
func RoleOf(name string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), " Agent"))
}

// New builds the crew described by cfg.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Crew, error) {
	opts := Options{BaseDir: ".", Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	llm := opts.Model
	if llm == nil {
		var err error
		if llm, err = NewModel(cfg); err != nil {
			return nil, err
		}
	}

	ws, err := workspace.New(cfg.Workspace, func(o *workspace.Options) {
		o.BaseDir = opts.BaseDir
		o.Logger = opts.Logger
		if opts.CommandRunner != nil {
			o.Runner = opts.CommandRunner
		}
	})
	if err != nil {
		return nil, err
	}

	store := opts.Knowledge
	if store == nil {
		if store, err = NewKnowledgeStore(cfg, opts.Logger); err != nil {
			return nil, err
		}
	}

	searcher := opts.Searcher
	if searcher == nil {
		searcher = research.NewSerperClient(func(o *research.SerperOptions) {
			o.APIKey = cfg.Search.SerperAPIKey
		})
	}

	models := map[string]string{}
	for _, name := range crew.Names {
		if m := cfg.ModelFor(RoleOf(name)); m != "" {
			models[name] = m
		}
	}

	agents, err := crew.New(crew.Deps{
		Workspace: ws,
		Model:     llm,
		Knowledge: store,
		Searcher:  searcher,
	}, func(o *crew.Options) {
		o.Models = models
		o.Verbose = cfg.Verbose
		o.Printer = opts.Printer
		o.Stream = cfg.Stream
		o.OnPartial = opts.OnPartial
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	c := &Crew{cfg: cfg, ws: ws, agents: agents, knowledge: store, opts: opts}
	if opts.Registerer != nil {
		if c.metrics, err = runner.NewMetrics(opts.Registerer); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Agents returns the crew members, Orchestrator first.
func (c *Crew) Agents() []*agent.Agent { return c.agents }

// Workspace returns the shared workspace.
func (c *Crew) Workspace() *workspace.Workspace { return c.ws }

// Knowledge returns the knowledge store used by the Database agent.
func (c *Crew) Knowledge() knowledge.Store { return c.knowledge }

// Config returns the configuration the crew was built from.
func (c *Crew) Config() *config.Config { return c.cfg }

func (c *Crew) coreAgents() []core.Agent {
	out := make([]core.Agent, len(c.agents))
	for i, a := range c.agents {
		out[i] = a
	}
	return out
}

func (c *Crew) observers() []runner.Observer {
	if c.metrics == nil {
		return nil
	}
	return []runner.Observer{c.metrics}
}

// NewRunner creates a conversation runner over the crew.
func (c *Crew) NewRunner(optFns ...func(o *runner.Options)) (*runner.Runner, error) {
	return runner.New(c.coreAgents(), func(o *runner.Options) {
		o.MaxIterations = c.cfg.MaxIterations
		o.IdleTurns = c.cfg.IdleTurns
		o.Observers = c.observers()
		o.Output = c.opts.Output
		o.Logger = c.opts.Logger
		for _, fn := range optFns {
			fn(o)
		}
	})
}

// RunProgrammatic runs the crew on prompt without further input.
func (c *Crew) RunProgrammatic(ctx context.Context, prompt string) (runner.Result, error) {
	r, err := c.NewRunner()
	if err != nil {
		return runner.Result{}, err
	}
	return r.RunProgrammatic(ctx, prompt)
}

// RunInteractive runs the crew reading user lines from input.
func (c *Crew) RunInteractive(ctx context.Context, input runner.InputReader) (runner.Result, error) {
	r, err := c.NewRunner()
	if err != nil {
		return runner.Result{}, err
	}
	return r.RunInteractive(ctx, input)
}

// NewWorkflow creates a workflow session over the crew. It matches
// session.Factory.
func (c *Crew) NewWorkflow(id string) (*session.Workflow, error) {
	return session.NewWorkflow(id, c.coreAgents(), func(o *session.Options) {
		o.Tasks = c.ws.Tasks()
		o.MaxIterations = c.cfg.MaxIterations
		o.IdleTurns = c.cfg.IdleTurns
		o.Observers = c.observers()
		o.Output = c.opts.Output
		o.Logger = c.opts.Logger
	})
}
