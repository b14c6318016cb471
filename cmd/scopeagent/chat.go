package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/smallnest/scopeagent/scope"
	"github.com/smallnest/scopeagent/session"
	"github.com/spf13/cobra"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	botStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	briefStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive scoping conversation in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, closeStore, err := newManager(ctx, opts)
			if err != nil {
				return err
			}
			defer closeStore()
			return runChat(ctx, m, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func isQuit(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}

// runChat reads one line per turn from in until EOF or a quit command. A finished
// session prints its brief and a fresh session starts; an error also restarts.
func runChat(ctx context.Context, m *session.Manager, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, bannerStyle.Render("Research Scoping Agent"))
	fmt.Fprintln(out, "Describe what you want researched. Type 'q' to quit.")

	st, err := m.Start(ctx)
	if err != nil {
		return err
	}
	id := st.ID

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n"+userStyle.Render("You: "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if isQuit(line) {
			fmt.Fprintln(out, botStyle.Render("Chatbot:")+" Goodbye!")
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply, err := m.Send(ctx, id, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintln(out, errorStyle.Render("An error occurred: "+err.Error()))
			fmt.Fprintln(out, "Restarting conversation.")
			if id, err = restart(ctx, m); err != nil {
				return err
			}
			continue
		}

		printReply(out, reply)

		if reply.Status.Terminal() {
			if id, err = restart(ctx, m); err != nil {
				return err
			}
			fmt.Fprintln(out, "\nStarting a new conversation.")
		}
	}
}

func restart(ctx context.Context, m *session.Manager) (string, error) {
	st, err := m.Start(ctx)
	if err != nil {
		return "", err
	}
	return st.ID, nil
}

func printReply(out io.Writer, reply *scope.Reply) {
	fmt.Fprintln(out, "\n"+botStyle.Render("Chatbot:"))
	for _, msg := range reply.Messages {
		if msg == reply.Report {
			continue
		}
		fmt.Fprintln(out, msg)
	}
	if reply.RenderedBrief != "" {
		fmt.Fprintln(out, briefStyle.Render(strings.TrimRight(reply.RenderedBrief, "\n")))
	}
	if reply.Report != "" {
		fmt.Fprintln(out, "\n"+bannerStyle.Render("Final Report"))
		fmt.Fprintln(out, reply.Report)
	}
}
