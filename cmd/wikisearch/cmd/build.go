package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/copetopi/wikisearch/internal/config"
	"github.com/copetopi/wikisearch/internal/indexer"
	"github.com/copetopi/wikisearch/internal/output"
	"github.com/copetopi/wikisearch/internal/wiki"
)

func newBuildCmd(a *app) *cobra.Command {
	var indexPath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Crawl the wiki and rebuild the search index",
		Long: `Crawl every page of every global space and commit them to the index.

The index is replaced only when the whole crawl succeeds. If any request
fails, or the run is interrupted, the index keeps its previous contents.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Ctrl+C cancels the crawl; the pending batch is discarded.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if indexPath != "" {
				a.cfg.Index.Path = indexPath
			}
			return runBuild(ctx, cmd, a.cfg, a.logger)
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Index location (default: index.path from config)")

	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	out := output.New(cmd.OutOrStdout())

	client, err := wiki.NewClient(wiki.Config{
		BaseURL:           cfg.Source.BaseURL,
		SpaceLimit:        cfg.Source.SpaceLimit,
		PageLimit:         cfg.Source.PageLimit,
		MaxPagesPerSpace:  cfg.Source.MaxPagesPerSpace,
		Timeout:           cfg.RequestTimeoutDuration(),
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
		UserAgent:         cfg.Source.UserAgent,
		Logger:            logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ix, err := indexer.New(client,
		indexer.Config{Location: cfg.Index.Path, StripMarkup: cfg.Index.StripMarkup},
		indexer.WithLogger(logger),
		indexer.WithProgress(buildProgress(out)),
	)
	if err != nil {
		return err
	}

	out.Statusf("🔍", "Crawling %s", cfg.Source.BaseURL)
	stats, err := ix.Run(ctx)
	if err != nil {
		out.Newline()
		if ctx.Err() != nil {
			out.Warning("Build interrupted. The index was left unchanged.")
		}
		return err
	}

	out.Successf("Indexed %d pages from %d spaces in %s",
		stats.Pages, stats.Spaces, stats.Duration.Round(time.Millisecond))
	out.Statusf("", "Index: %s (%d documents)", cfg.Index.Path, stats.Total)
	if stats.Stale > 0 {
		out.Warningf("%d documents were not seen in this run and remain searchable", stats.Stale)
	}
	return nil
}

// buildProgress maps crawl progress onto console output.
func buildProgress(out *output.Writer) func(indexer.Progress) {
	return func(p indexer.Progress) {
		switch p.Stage {
		case indexer.StageSpace:
			out.Linef("Indexing space: %s... (%d/%d)", p.Space.Name, p.SpaceNum, p.SpaceTotal)
		case indexer.StagePage:
			out.Progress(p.Current, p.Total, fmt.Sprintf("%s: %s", p.Space.Key, p.Title))
		case indexer.StageCommit:
			out.Statusf("💾", "Committing %d documents...", p.Current)
		}
	}
}
