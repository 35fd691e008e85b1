package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent"
)

var feedOut string

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Write the RSS feed to a file, or stdout with --out -",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		app := pubcontent.New(cfg, pubcontent.WithLogger(log))
		defer app.Close()
		if err := app.Init(); err != nil {
			return err
		}

		f, err := app.RenderFeed(cmd.Context())
		if err != nil {
			return err
		}
		if feedOut == "-" {
			_, err := cmd.OutOrStdout().Write(f.Body)
			return err
		}
		if err := os.MkdirAll(filepath.Dir(feedOut), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(feedOut, f.Body, 0o644); err != nil {
			return fmt.Errorf("write feed: %w", err)
		}
		log.Info("feed written",
			zap.String("path", feedOut),
			zap.Int("entries", len(f.Entries)),
			zap.Int("skipped", len(f.Skipped)),
		)
		return nil
	},
}

func init() {
	feedCmd.Flags().StringVarP(&feedOut, "out", "o", "public/rss.xml", "Output file")
}
