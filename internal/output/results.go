package output

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NoResults is printed when a query has no hits.
const NoResults = "No results found."

// ruleWidth is the width of the separator printed after each result.
const ruleWidth = 40

// Result is one search hit ready for display.
type Result struct {
	Title  string  `json:"title"`
	PageID string  `json:"page_id"`
	URL    string  `json:"url"`
	Score  float64 `json:"score"`
}

// Results prints each result as a Title line, a URL line and a rule,
// or NoResults when there are none.
func (w *Writer) Results(results []Result) {
	if len(results) == 0 {
		w.Line(NoResults)
		return
	}

	rule := w.styles.Rule.Render(strings.Repeat("-", ruleWidth))
	for _, r := range results {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", w.styles.Label.Render("Title:"), w.styles.Title.Render(r.Title))
		_, _ = fmt.Fprintf(w.out, "%s %s\n", w.styles.Label.Render("URL:"), w.styles.URL.Render(r.URL))
		_, _ = fmt.Fprintln(w.out, rule)
	}
}

// ResultsJSON prints results as an indented JSON array. An empty result set is [].
func (w *Writer) ResultsJSON(results []Result) error {
	if results == nil {
		results = []Result{}
	}
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}
