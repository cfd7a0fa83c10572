package main

import (
	"strings"

	"github.com/hyperjump/docqa/internal/cli"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/spf13/cobra"
)

// defaultSessionID is used by one-shot questions that name no session.
const defaultSessionID = "cli"

func newAskCmd(root *rootOptions) *cobra.Command {
	var (
		docs      []string
		sessionID string
		serverURL string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question",
		Long: `Ask a question about the ingested documents. Use --doc (repeatable) to
answer only from the named documents. Against a local index each invocation
starts with empty history; use --server to keep history across calls.`,
		Args: cobra.MinimumNArgs(1),
	}
	format := outputFlag(cmd)
	cmd.Flags().StringArrayVarP(&docs, "doc", "d", nil, "restrict the answer to this document ID (repeatable)")
	cmd.Flags().StringVarP(&sessionID, "session", "s", defaultSessionID, "conversation session ID")
	cmd.Flags().StringVar(&serverURL, "server", "", "ask a running server instead of the local index")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		of, err := format()
		if err != nil {
			return err
		}
		req := models.QueryRequest{
			Question:  strings.Join(args, " "),
			Documents: docs,
			SessionID: sessionID,
		}
		if err := req.Validate(); err != nil {
			return err
		}
		env, err := root.setup(false)
		if err != nil {
			return err
		}
		defer func() { _ = env.logger.Sync() }()
		ctx := cmd.Context()

		var answer models.Answer
		if serverURL != "" {
			answer, err = cli.NewAPIClient(serverURL, env.cfg.Server.RequestTimeout).Query(ctx, req)
			if err != nil {
				return err
			}
		} else {
			components, err := initializeComponents(ctx, env.cfg, env.logger)
			if err != nil {
				return err
			}
			defer components.Close()
			answer = components.Service.Answer(ctx, req.SessionID, req.Question, req.Documents)
		}
		return cli.WriteAnswer(cmd.OutOrStdout(), answer, of)
	}
	return cmd
}
