package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew/workspace"
)

var statusIcons = map[workspace.Status]string{
	workspace.StatusPending:    "[ ]",
	workspace.StatusInProgress: "[~]",
	workspace.StatusCompleted:  "[x]",
}

func newTasksCommand(flags *globalFlags) *cobra.Command {
	var clearTasks bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Show the task list of the workspace",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			ws, err := workspace.New(cfg.Workspace)
			if err != nil {
				return err
			}

			if clearTasks {
				if err := ws.Tasks().Clear(); err != nil {
					return err
				}
				fmt.Println(green("Task list cleared"))
				return nil
			}

			tasks, err := ws.Tasks().List()
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println(gray("No active task list."))
				return nil
			}

			for i, t := range tasks {
				line := fmt.Sprintf("%s %d. %s", statusIcons[t.Status], i, t.Description)
				if t.Status == workspace.StatusCompleted {
					line = green(line)
				}
				fmt.Println(line)
			}
			p := workspace.Summarize(tasks)
			fmt.Println(gray(fmt.Sprintf("%d/%d completed, %d in progress", p.Completed, p.Total, p.InProgress)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearTasks, "clear", false, "delete the task list")

	return cmd
}
