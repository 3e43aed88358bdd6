package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/calmate/internal/assistant"
	"github.com/teemow/calmate/internal/response"
)

func newIntentCmd() *cobra.Command {
	var replies []string

	cmd := &cobra.Command{
		Use:   "intent <json|->",
		Short: "Run one intent against the configured calendar",
		Long: `Run one classified intent and print the result as JSON. Pass "-" to
read the intent from stdin. Follow-up utterances given with --reply are
resolved in order against the same conversation, so a proposal can be
picked from the command line.`,
		Example: `  calmate intent '{"action":"query","date":"2026-03-02"}'
  calmate intent '{"action":"move","eventQuery":"定例","date":"2026-03-02","newDate":"2026-03-03"}' --reply 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, nil, newLogger(os.Stderr, debugMode))
			if err != nil {
				return err
			}
			d, err := a.newDispatcher()
			if err != nil {
				return err
			}
			return runIntent(ctx, cmd.OutOrStdout(), d, payload, replies)
		},
	}

	cmd.Flags().StringArrayVar(&replies, "reply", nil, "Follow-up utterance (repeatable)")

	return cmd
}

func readPayload(arg string, stdin io.Reader) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read intent from stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("empty intent on stdin")
	}
	return data, nil
}

// runIntent handles payload, then each reply, printing every result.
func runIntent(ctx context.Context, w io.Writer, d *assistant.Dispatcher, payload []byte, replies []string) error {
	results := []response.Result{d.HandleJSON(ctx, payload)}
	for _, r := range replies {
		results = append(results, d.Reply(ctx, r))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	if last := results[len(results)-1]; last.Type == response.TypeError {
		return fmt.Errorf("%s", last.Message)
	}
	return nil
}
