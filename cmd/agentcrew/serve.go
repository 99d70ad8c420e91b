package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew"
	"github.com/hupe1980/agentcrew/server"
	"github.com/hupe1980/agentcrew/session"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the crew over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := prometheus.NewRegistry()
			c, cfg, logger, err := flags.buildCrew(func(o *agentcrew.Options) { o.Registerer = reg })
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			store := session.NewInMemoryStore(c.NewWorkflow)
			srv := server.New(store, c.Workspace(), func(o *server.Options) {
				o.Addr = addr
				o.Gatherer = reg
				o.Logger = logger
			})

			fmt.Println(green("Serving agentcrew on " + addr))
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8000)")

	return cmd
}
