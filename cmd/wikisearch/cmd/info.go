package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
	"github.com/copetopi/wikisearch/internal/output"
	"github.com/copetopi/wikisearch/internal/store"
)

// indexInfo is the JSON form of the info command.
type indexInfo struct {
	Location  string           `json:"location"`
	Documents uint64           `json:"documents"`
	LastRun   *store.RunRecord `json:"last_run,omitempty"`
}

func newInfoCmd(a *app) *cobra.Command {
	var jsonOutput bool
	var indexPath string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show index statistics and the last successful build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if indexPath != "" {
				a.cfg.Index.Path = indexPath
			}
			out := output.New(cmd.OutOrStdout())

			idx, err := store.OpenReadOnly(cmd.Context(), a.cfg.Index.Path)
			if apperrors.IsIndexNotFound(err) {
				out.Line(missingIndexMessage)
				return nil
			}
			if err != nil {
				return err
			}
			defer func() { _ = idx.Close() }()

			info := indexInfo{Location: a.cfg.Index.Path}
			if info.Documents, err = idx.DocCount(); err != nil {
				return err
			}
			if info.LastRun, err = idx.LastRun(); err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			out.Linef("Index:      %s", info.Location)
			out.Linef("Documents:  %d", info.Documents)
			if info.LastRun == nil {
				out.Line("Last build: none recorded")
				return nil
			}
			run := info.LastRun
			out.Linef("Last build: %s (took %s)",
				run.FinishedAt.Local().Format(time.DateTime),
				run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
			out.Linef("Spaces:     %d", run.Spaces)
			out.Linef("Pages:      %d", run.Pages)
			if run.Version != "" {
				out.Linef("Built by:   wikisearch %s", run.Version)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.Flags().StringVar(&indexPath, "index", "", "Index location (default: index.path from config)")

	return cmd
}
