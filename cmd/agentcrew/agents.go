package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew"
	"github.com/hupe1980/agentcrew/crew"
	"github.com/hupe1980/agentcrew/workspace"
)

func newAgentsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the crew and their tools",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			ws, err := workspace.New(cfg.Workspace)
			if err != nil {
				return err
			}
			llm, err := agentcrew.NewModel(cfg)
			if err != nil {
				return err
			}
			agents, err := crew.New(crew.Deps{Workspace: ws, Model: llm})
			if err != nil {
				return err
			}
			for _, a := range agents {
				fmt.Printf("%s\n  %s %s\n", agentLabel(a.Name()), gray("tools:"), strings.Join(a.ToolNames(), ", "))
			}
			return nil
		},
	}
}
