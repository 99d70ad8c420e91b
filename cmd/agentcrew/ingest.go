package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew/ingest"
)

func newIngestCommand(flags *globalFlags) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "ingest <files...>",
		Short: "Convert documents and store them in the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, logger, err := flags.buildCrew()
			if err != nil {
				return err
			}

			srcs, err := ingest.LoadFiles(args)
			if err != nil {
				return err
			}
			p := ingest.NewProcessor(func(o *ingest.Options) {
				o.Concurrency = concurrency
				o.Logger = logger
			})
			results, err := p.IngestInto(cmd.Context(), c.Knowledge(), srcs)
			if err != nil {
				return err
			}

			for _, r := range results {
				fmt.Printf("%s %s %s\n", green("stored"), r.Source, gray(fmt.Sprintf("(%d chunks)", r.Chunks)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "documents converted in parallel")

	return cmd
}
