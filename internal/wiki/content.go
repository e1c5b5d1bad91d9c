package wiki

import (
	"context"
	"fmt"
	"net/url"

	apperrors "github.com/copetopi/wikisearch/internal/errors"
)

// FetchContent fetches the storage-format body of one page.
func (c *Client) FetchContent(ctx context.Context, pageID string) (*PageContent, error) {
	if pageID == "" {
		return nil, apperrors.ValidationError("page id must not be empty", nil)
	}

	query := url.Values{}
	query.Set("expand", "body.storage")

	var resp contentResponse
	if err := c.getJSON(ctx, "/content/"+url.PathEscape(pageID), query, &resp); err != nil {
		return nil, err
	}

	if resp.Body == nil || resp.Body.Storage == nil {
		return nil, apperrors.TransportError(apperrors.ErrCodeMalformedResponse,
			fmt.Sprintf("content of page %s has no body.storage", pageID), nil).
			WithDetail("page_id", pageID)
	}

	return &PageContent{ID: pageID, RawBody: resp.Body.Storage.Value}, nil
}
