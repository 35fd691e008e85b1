package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/fsstore"
	"github.com/eringen/pubcontent/sqlitestore"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the SQLite index from the content directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		opts := []fsstore.Option{fsstore.WithLogger(log)}
		if cfg.SchemaPath != "" {
			opts = append(opts, fsstore.WithSchema(cfg.SchemaPath))
		}
		src, err := fsstore.Open(cfg.ContentDir, opts...)
		if err != nil {
			return err
		}

		start := time.Now()
		docs, err := src.All(cmd.Context())
		if err != nil {
			return err
		}

		dst, err := sqlitestore.NewStore(cfg.IndexPath)
		if err != nil {
			return fmt.Errorf("open index %s: %w", cfg.IndexPath, err)
		}
		defer dst.Close()

		if err := dst.Index(cmd.Context(), docs); err != nil {
			return err
		}
		log.Info("index rebuilt",
			zap.String("content_dir", cfg.ContentDir),
			zap.String("index_path", cfg.IndexPath),
			zap.Int("documents", len(docs)),
			zap.Duration("took", time.Since(start)),
		)
		return nil
	},
}
