package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew"
	"github.com/hupe1980/agentcrew/config"
	"github.com/hupe1980/agentcrew/logging"
)

type globalFlags struct {
	configPath string
	workspace  string
	verbose    bool
	stream     bool
	logLevel   string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "agentcrew",
		Short: "A crew of LLM agents that plans, writes, tests and documents code",
		Long: `agentcrew coordinates an Orchestrator with Coder, Tester, Database and
Research agents. Agents hand control to each other through tool calls while
sharing one conversation and a workspace directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (yaml, toml or json)")
	pf.StringVarP(&flags.workspace, "workspace", "w", "", "workspace directory (default .agent_workspace)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "print agent replies as they arrive")
	pf.BoolVar(&flags.stream, "stream", false, "stream model output")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newChatCommand(flags),
		newRunCommand(flags),
		newServeCommand(flags),
		newAgentsCommand(flags),
		newTasksCommand(flags),
		newIngestCommand(flags),
	)

	return root
}

// loadConfig reads the config and applies flag overrides.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.workspace != "" {
		cfg.Workspace = f.workspace
	}
	if f.verbose {
		cfg.Verbose = true
	}
	if f.stream {
		cfg.Stream = true
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg, nil
}

// buildCrew loads the config, validates it and builds the crew.
func (f *globalFlags) buildCrew(optFns ...func(o *agentcrew.Options)) (*agentcrew.Crew, *config.Config, logging.Logger, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger := agentcrew.NewLogger(cfg, nil).WithComponent("cli")
	c, err := agentcrew.New(cfg, append([]func(o *agentcrew.Options){
		func(o *agentcrew.Options) {
			o.Logger = logger
			o.Printer = printAgent
			o.OnPartial = printPartial
		},
	}, optFns...)...)
	if err != nil {
		return nil, nil, nil, err
	}
	return c, cfg, logger, nil
}
