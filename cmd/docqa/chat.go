package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/docqa/internal/cli"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/spf13/cobra"
)

// answerer is what the chat loop talks to: the local service or a remote server.
type answerer interface {
	answer(ctx context.Context, question string) (models.Answer, error)
	clear(ctx context.Context) error
}

func newChatCmd(root *rootOptions) *cobra.Command {
	var (
		docs      []string
		serverURL string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation. Each question sees the previous turns of
the session. Type /clear to forget the conversation and /exit to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := root.setup(false)
			if err != nil {
				return err
			}
			defer func() { _ = env.logger.Sync() }()
			ctx := cmd.Context()
			sessionID := uuid.New().String()

			var a answerer
			if serverURL != "" {
				a = &remoteChat{
					client:    cli.NewAPIClient(serverURL, env.cfg.Server.RequestTimeout),
					sessionID: sessionID,
					scope:     docs,
				}
			} else {
				components, err := initializeComponents(ctx, env.cfg, env.logger)
				if err != nil {
					return err
				}
				defer components.Close()
				a = &localChat{components: components, sessionID: sessionID, scope: docs}
			}
			return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), a)
		},
	}
	cmd.Flags().StringArrayVarP(&docs, "doc", "d", nil, "restrict answers to this document ID (repeatable)")
	cmd.Flags().StringVar(&serverURL, "server", "", "chat with a running server instead of the local index")
	return cmd
}

func chatLoop(ctx context.Context, in io.Reader, out io.Writer, a answerer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			if err := a.clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}
		answer, err := a.answer(ctx, line)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n\n", answer.Answer)
	}
}

type localChat struct {
	components *Components
	sessionID  string
	scope      []string
}

func (c *localChat) answer(ctx context.Context, question string) (models.Answer, error) {
	return c.components.Service.Answer(ctx, c.sessionID, question, c.scope), nil
}

func (c *localChat) clear(context.Context) error {
	c.components.Service.ClearSession(c.sessionID)
	return nil
}

type remoteChat struct {
	client    *cli.APIClient
	sessionID string
	scope     []string
	asked     bool
}

func (c *remoteChat) answer(ctx context.Context, question string) (models.Answer, error) {
	c.asked = true
	return c.client.Query(ctx, models.QueryRequest{
		Question:  question,
		Documents: c.scope,
		SessionID: c.sessionID,
	})
}

// clear is a no-op until the server has seen the session; it answers 404 otherwise.
func (c *remoteChat) clear(ctx context.Context) error {
	if !c.asked {
		return nil
	}
	c.asked = false
	return c.client.ClearSession(ctx, c.sessionID)
}
