package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/tool"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "chat",
		Short:       "Start an interactive terminal session",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{interactiveAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return runChat(cmd, a)
		},
	}
}

func runChat(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "🤖 Desktop assistant ready. Type 'help' to list tools, 'quit' to exit.")
	fmt.Fprintln(out)
	log.Info().Str("session_id", a.orchestrator.Session().ID).Msg("chat session started")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "👋 Goodbye!")
			return nil
		case "help":
			printTools(out)
			continue
		}

		select {
		case reply := <-a.orchestrator.Submit(ctx, line):
			fmt.Fprintf(out, "🤖 Response: %s\n\n", reply)
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		}
	}

	fmt.Fprintln(out)
	return scanner.Err()
}

func printTools(w io.Writer) {
	fmt.Fprintln(w, "Available tools:")
	for _, d := range tool.Definitions() {
		fmt.Fprintf(w, "  • %s - %s\n", d.Signature(), d.Desc)
	}
	fmt.Fprintln(w)
}
