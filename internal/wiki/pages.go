package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
)

// ListPages returns every page of spaceKey.
//
// Pages are requested at offsets 0, PageLimit, 2*PageLimit, ... until a
// response carries no next link. Short or empty pages do not end the loop.
// If any request fails, nothing is returned.
func (c *Client) ListPages(ctx context.Context, spaceKey string) ([]PageSummary, error) {
	var pages []PageSummary

	for start := 0; ; start += c.cfg.PageLimit {
		query := url.Values{}
		query.Set("type", "page")
		query.Set("spaceKey", spaceKey)
		query.Set("start", strconv.Itoa(start))
		query.Set("limit", strconv.Itoa(c.cfg.PageLimit))

		var resp pageListResponse
		if err := c.getJSON(ctx, "/content", query, &resp); err != nil {
			return nil, err
		}

		for _, r := range resp.Results {
			if r.ID == "" {
				return nil, apperrors.TransportError(apperrors.ErrCodeMalformedResponse,
					fmt.Sprintf("page listing for space %s contains a page without id", spaceKey), nil).
					WithDetail("space", spaceKey).
					WithDetail("start", strconv.Itoa(start))
			}
			if r.Space != nil && r.Space.Key != "" && r.Space.Key != spaceKey {
				c.logger.Warn("page_space_mismatch",
					slog.String("page_id", r.ID),
					slog.String("space", spaceKey),
					slog.String("declared_space", r.Space.Key))
				continue
			}
			pages = append(pages, PageSummary{ID: r.ID, Title: r.Title, SpaceKey: spaceKey})
		}

		if ceiling := c.cfg.MaxPagesPerSpace; ceiling > 0 && len(pages) > ceiling {
			return nil, apperrors.TransportError(apperrors.ErrCodePaginationLimit,
				fmt.Sprintf("space %s yielded more than %d pages", spaceKey, ceiling), nil).
				WithDetail("space", spaceKey).
				WithSuggestion("Raise source.max_pages_per_space or set it to 0 for no limit")
		}

		if resp.Links.Next == "" {
			break
		}
	}

	c.logger.Debug("pages_listed", slog.String("space", spaceKey), slog.Int("count", len(pages)))
	return pages, nil
}
