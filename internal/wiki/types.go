package wiki

// Space is a top-level wiki container of pages.
type Space struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// PageSummary identifies one page of a space.
type PageSummary struct {
	ID       string
	Title    string
	SpaceKey string
}

// PageContent is the raw storage-format body of a page.
type PageContent struct {
	ID      string
	RawBody string
}

// links is the pagination block of a list response.
// Next is empty on the last page.
type links struct {
	Next string `json:"next"`
}

type spaceListResponse struct {
	Results []Space `json:"results"`
	Links   links   `json:"_links"`
}

type pageResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Space *struct {
		Key string `json:"key"`
	} `json:"space"`
}

type pageListResponse struct {
	Results []pageResult `json:"results"`
	Start   int          `json:"start"`
	Limit   int          `json:"limit"`
	Size    int          `json:"size"`
	Links   links        `json:"_links"`
}

type contentResponse struct {
	ID   string `json:"id"`
	Body *struct {
		Storage *struct {
			Value          string `json:"value"`
			Representation string `json:"representation"`
		} `json:"storage"`
	} `json:"body"`
}
