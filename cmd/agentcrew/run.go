package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew"
	"github.com/hupe1980/agentcrew/ingest"
)

func newRunCommand(flags *globalFlags) *cobra.Command {
	var (
		attachments []string
		transcript  bool
	)

	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: "Run the crew on a prompt without further input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, _, err := flags.buildCrew(func(o *agentcrew.Options) { o.Output = os.Stdout })
			if err != nil {
				return err
			}

			prompt := strings.Join(args, " ")
			if len(attachments) > 0 {
				srcs, err := ingest.LoadFiles(attachments)
				if err != nil {
					return err
				}
				docs, err := ingest.NewProcessor().ProcessAll(cmd.Context(), srcs)
				if err != nil {
					return err
				}
				prompt = ingest.CombinePrompt(prompt, docs)
			}

			res, err := c.RunProgrammatic(cmd.Context(), prompt)
			if transcript {
				printTranscript(res.Messages)
			}
			printResult(res)
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&attachments, "attach", "a", nil, "documents to attach to the prompt")
	cmd.Flags().BoolVar(&transcript, "transcript", false, "print the full transcript when done")

	return cmd
}
