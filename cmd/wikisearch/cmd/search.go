package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
	"github.com/copetopi/wikisearch/internal/output"
	"github.com/copetopi/wikisearch/internal/search"
)

// missingIndexMessage is printed instead of results when no index was built.
const missingIndexMessage = "Index does not exist. Please create it first."

func newSearchCmd(a *app) *cobra.Command {
	var limit int
	var format string
	var indexPath string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the index for pages matching a keyword query",
		Long: `Search page content for the given words. Words are stemmed, so a
query for "architecture" also matches "architectural".

Results are ordered by relevance and printed as title and link.`,
		Example: `  wikisearch search architecture
  wikisearch search ranking algorithms -n 5
  wikisearch search mensa --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if indexPath != "" {
				a.cfg.Index.Path = indexPath
			}
			if format != "text" && format != "json" {
				return apperrors.ValidationError("--format must be 'text' or 'json', got "+format, nil)
			}
			if limit < 0 {
				return apperrors.ValidationError("--limit must not be negative", nil)
			}

			engine := search.NewEngine(search.Config{
				MaxResults:  a.cfg.Search.MaxResults,
				ExpandStems: a.cfg.Search.ExpandStems,
			}).WithLogger(a.logger)

			hits, err := engine.Search(cmd.Context(), a.cfg.Index.Path, strings.Join(args, " "), limit)
			if apperrors.IsIndexNotFound(err) {
				output.NewPlain(cmd.OutOrStdout()).Line(missingIndexMessage)
				return nil
			}
			if err != nil {
				return err
			}

			results := make([]output.Result, 0, len(hits))
			for _, h := range hits {
				results = append(results, output.Result{
					Title:  h.Title,
					PageID: h.PageID,
					URL:    a.cfg.PageURL(h.PageID),
					Score:  h.Score,
				})
			}

			if format == "json" {
				return output.NewPlain(cmd.OutOrStdout()).ResultsJSON(results)
			}
			output.New(cmd.OutOrStdout()).Results(results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default: search.max_results from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&indexPath, "index", "", "Index location (default: index.path from config)")

	return cmd
}
