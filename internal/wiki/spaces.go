package wiki

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
)

// ListGlobalSpaces returns the global spaces in the order the API lists them.
// A single request is made; the listing is not paginated.
func (c *Client) ListGlobalSpaces(ctx context.Context) ([]Space, error) {
	query := url.Values{}
	query.Set("type", "global")
	query.Set("limit", strconv.Itoa(c.cfg.SpaceLimit))

	var resp spaceListResponse
	if err := c.getJSON(ctx, "/space", query, &resp); err != nil {
		return nil, err
	}

	if resp.Links.Next != "" {
		c.logger.Warn("space_listing_truncated",
			slog.Int("limit", c.cfg.SpaceLimit),
			slog.Int("returned", len(resp.Results)))
	}

	return resp.Results, nil
}
