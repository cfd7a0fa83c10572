package main

import (

	"github.com/hyperjump/docqa/internal/cli"
	"github.com/hyperjump/docqa/internal/storage"
	"github.com/spf13/cobra"
)

func newDocumentsCmd(root *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs", "ls"},
		Short:   "List ingested document IDs",
		Args:    cobra.NoArgs,
	}
	format := outputFlag(cmd)
	cmd.Flags().StringVar(&serverURL, "server", "", "list documents of a running server")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		of, err := format()
		if err != nil {
			return err
		}
		env, err := root.setup(false)
		if err != nil {
			return err
		}
		defer func() { _ = env.logger.Sync() }()
		ctx := cmd.Context()

		var docs []string
		if serverURL != "" {
			docs, err = cli.NewAPIClient(serverURL, env.cfg.Server.RequestTimeout).Documents(ctx)
		} else {
			components, cerr := initializeComponents(ctx, env.cfg, env.logger)
			if cerr != nil {
				return cerr
			}
			defer components.Close()
			docs, err = components.Service.ListDocuments(ctx)
		}
		if err != nil {
			return err
		}
		return cli.WriteDocuments(cmd.OutOrStdout(), docs, of)
	}
	return cmd
}

func newStatusCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index statistics and active configuration",
		Args:  cobra.NoArgs,
	}
	format := outputFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		of, err := format()
		if err != nil {
			return err
		}
		env, err := root.setup(false)
		if err != nil {
			return err
		}
		defer func() { _ = env.logger.Sync() }()
		ctx := cmd.Context()

		components, err := initializeComponents(ctx, env.cfg, env.logger)
		if err != nil {
			return err
		}
		defer components.Close()
		stats, err := components.Service.Stats(ctx)
		if err != nil {
			return err
		}
		cfg := env.cfg
		diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DataDir, cfg.Storage.UploadDir)
		if err != nil {
			return err
		}
		return cli.WriteStatus(cmd.OutOrStdout(), cli.Status{
			Documents:       stats.Documents,
			Chunks:          stats.Chunks,
			VectorIndexType: cfg.Vector.Type,
			EmbeddingModel:  cfg.Embedding.Provider + "/" + cfg.Embedding.Model,
			LLMModel:        cfg.LLM.Provider + "/" + cfg.LLM.Model,
			DataDir:         cfg.Storage.DataDir,
			DiskUsageBytes:  diskBytes,
		}, of)
	}
	return cmd
}
