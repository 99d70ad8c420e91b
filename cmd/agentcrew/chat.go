package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew"
	"github.com/hupe1980/agentcrew/runner"
)

func newChatCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the crew interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.verbose = true
			c, _, _, err := flags.buildCrew(func(o *agentcrew.Options) { o.Output = os.Stdout })
			if err != nil {
				return err
			}

			fmt.Println(bold("agentcrew") + " " + gray("workspace: "+c.Workspace().Dir()))

			input, closeInput, err := newInput()
			if err != nil {
				return err
			}
			defer closeInput()

			res, err := c.RunInteractive(cmd.Context(), input)
			printResult(res)
			return err
		},
	}
}

// readlineInput adapts readline to runner.InputReader. Ctrl+C on an empty
// line ends the conversation like Ctrl+D.
type readlineInput struct{ rl *readline.Instance }

func (r readlineInput) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		if line == "" {
			return "", io.EOF
		}
		return "", nil
	}
	return line, err
}

func newInput() (runner.InputReader, func(), error) {
	if !isTTY() {
		return runner.NewLineReader(os.Stdin, os.Stdout, "You: "), func() {}, nil
	}

	history := ""
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".agentcrew_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "You: ",
		HistoryFile:       history,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             readline.NewCancelableStdin(os.Stdin),
		Stdout:            os.Stdout,
		Stderr:            os.Stderr,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize readline: %w", err)
	}
	return readlineInput{rl: rl}, func() { _ = rl.Close() }, nil
}
