package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/util"
	"github.com/hupe1980/agentcrew/runner"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

var agentColors = map[string]func(a ...any) string{
	"Orchestrator Agent": blue,
	"Coder Agent":        green,
	"Tester Agent":       yellow,
	"Database Agent":     cyan,
	"Research Agent":     color.New(color.FgMagenta).SprintFunc(),
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func agentLabel(name string) string {
	if c, ok := agentColors[name]; ok {
		return bold(c(name))
	}
	return bold(name)
}

var (
	rendererOnce sync.Once
	renderer     *glamour.TermRenderer
)

// renderMarkdown renders text for a terminal; plain text is returned when
// stdout is not a terminal or rendering fails.
func renderMarkdown(text string) string {
	if !isTTY() {
		return text
	}
	rendererOnce.Do(func() {
		width := 100
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
			width = w - 4
		}
		renderer, _ = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	})
	if renderer == nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// printAgent prints a complete agent reply.
func printAgent(agent, text string) {
	fmt.Printf("\n%s:\n%s\n", agentLabel(agent), renderMarkdown(text))
}

var partialAgent string

// printPartial prints streamed deltas, starting a new block per agent.
func printPartial(agent, delta string) {
	if agent != partialAgent {
		partialAgent = agent
		fmt.Printf("\n%s: ", agentLabel(agent))
	}
	fmt.Print(delta)
}

// printTranscript prints a compact view of msgs.
func printTranscript(msgs []core.Message) {
	for _, m := range msgs {
		switch m.Role {
		case core.RoleUser:
			fmt.Printf("%s %s\n", bold("User:"), m.Content)
		case core.RoleAssistant:
			if m.Content != "" {
				fmt.Printf("%s %s\n", agentLabel(m.Agent)+":", m.Content)
			}
			for _, c := range m.ToolCalls {
				fmt.Printf("  %s %s(%s)\n", gray("->"), c.Name, truncate(c.Arguments, 120))
			}
		case core.RoleTool:
			fmt.Printf("  %s %s\n", gray("<-"), truncate(m.Content, 200))
		}
	}
}

func printResult(res runner.Result) {
	fmt.Println()
	status := green
	if res.Reason == runner.StopError || res.Reason == runner.StopAgentNotFound {
		status = red
	}
	fmt.Println(status(fmt.Sprintf("Stopped: %s after %d turns (%d messages, last agent %s)",
		res.Reason, res.Iterations, len(res.Messages), res.LastAgent)))
	if res.Summary != "" {
		fmt.Println(bold("Summary: ") + res.Summary)
	}
}

func truncate(s string, n int) string {
	return util.Truncate(strings.ReplaceAll(s, "\n", " "), n)
}
