package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hyperjump/docqa/internal/cli"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newIngestCmd(root *rootOptions) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "ingest <file-or-directory>...",
		Short: "Ingest .txt and .pdf files into the index",
		Long: `Ingest files into the vector index. Directories are walked recursively and
every supported file is ingested. Ingesting the same file again appends its
chunks a second time.`,
		Args: cobra.MinimumNArgs(1),
	}
	format := outputFlag(cmd)
	cmd.Flags().StringVar(&serverURL, "server", "", "upload to a running server instead of the local index")
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

		if serverURL != "" {
			return uploadFiles(ctx, cmd, serverURL, env, args, of)
		}

		components, err := initializeComponents(ctx, env.cfg, env.logger)
		if err != nil {
			return err
		}
		defer components.Close()

		var results []*models.IngestResult
		for _, path := range args {
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("cannot access %s: %w", path, err)
			}
			if info.IsDir() {
				res, err := components.Pipeline.IngestDirectory(ctx, path)
				results = append(results, res...)
				if err != nil {
					_ = cli.WriteIngestResults(cmd.OutOrStdout(), results, of)
					return err
				}
				continue
			}
			res, err := components.Service.Ingest(ctx, path)
			if err != nil {
				_ = cli.WriteIngestResults(cmd.OutOrStdout(), results, of)
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			results = append(results, res)
		}
		env.logger.Debug("ingest finished", zap.Int("files", len(results)))
		return cli.WriteIngestResults(cmd.OutOrStdout(), results, of)
	}
	return cmd
}

// uploadFiles sends each file to a running server's /upload endpoint.
func uploadFiles(ctx context.Context, cmd *cobra.Command, serverURL string, env *commandEnv, paths []string, of cli.OutputFormat) error {
	client := cli.NewAPIClient(serverURL, env.cfg.Server.RequestTimeout)
	var results []*models.IngestResult
	for _, path := range paths {
		resp, err := client.Upload(ctx, path)
		if err != nil {
			_ = cli.WriteIngestResults(cmd.OutOrStdout(), results, of)
			return fmt.Errorf("upload %s: %w", path, err)
		}
		results = append(results, &models.IngestResult{
			FilePath:        path,
			FileName:        resp.FileName,
			NumChunks:       resp.NumChunks,
			VectorStoreSize: resp.VectorStoreSize,
		})
	}
	return cli.WriteIngestResults(cmd.OutOrStdout(), results, of)
}
