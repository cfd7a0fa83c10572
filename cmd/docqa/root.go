package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/docqa/internal/cli"
	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultConfigPath = "/usr/local/etc/docqa/config.yaml"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Ask questions about your documents",
		Long: `docqa ingests text and PDF documents into a vector index and answers
natural-language questions from their content, optionally scoped to a subset
of documents, with multi-turn conversational context.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (default: ./config.yaml, then "+defaultConfigPath+")")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newIngestCmd(opts),
		newAskCmd(opts),
		newChatCmd(opts),
		newDocumentsCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig resolves the config file. An explicit path must exist. Without one,
// config.yaml in the working directory is preferred (for development), then the
// system path, then built-in defaults. Environment overrides apply in every case.
// Returns the config and the path that was loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	config.LoadDotEnv()

	var (
		cfg      *config.Config
		resolved string
		err      error
	)
	switch {
	case path != "":
		cfg, err = config.Load(path)
		resolved = path
	default:
		for _, candidate := range configCandidates() {
			if _, statErr := os.Stat(candidate); statErr == nil {
				resolved = candidate
				break
			}
		}
		if resolved != "" {
			cfg, err = config.Load(resolved)
		} else {
			cfg, err = config.Default()
		}
	}
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, resolved, nil
}

func configCandidates() []string {
	var out []string
	if cwd, err := os.Getwd(); err == nil {
		out = append(out, filepath.Join(cwd, "config.yaml"))
	}
	return append(out, defaultConfigPath)
}

// commandEnv is the loaded config and logger for one command invocation.
type commandEnv struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
}

// setup loads config and builds the logger. Long-running commands get the
// structured logger; one-shot commands get the quiet console logger.
func (o *rootOptions) setup(longRunning bool) (*commandEnv, error) {
	cfg, path, err := loadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	debug := cfg.Debug || o.debug
	var logger *zap.Logger
	if longRunning {
		logger, err = utils.NewLogger(debug)
	} else {
		logger, err = utils.NewCLILogger(debug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &commandEnv{cfg: cfg, configPath: path, logger: logger}, nil
}

// outputFlag registers --output and returns a getter that validates it.
func outputFlag(cmd *cobra.Command) func() (cli.OutputFormat, error) {
	var raw string
	cmd.Flags().StringVarP(&raw, "output", "o", string(cli.OutputText), "output format: text or json")
	return func() (cli.OutputFormat, error) { return cli.ParseOutputFormat(raw) }
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docqa version %s\n", version)
		},
	}
}
