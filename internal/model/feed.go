package model

// FeedItem is a job posting ranked for the current user.
type FeedItem struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Company    string         `json:"company,omitempty"`
	Location   string         `json:"location,omitempty"`
	Remote     bool           `json:"remote"`
	URL        string         `json:"url,omitempty"`
	Tags       []string       `json:"tags"`
	FitScore   *float64       `json:"fit_score,omitempty"`
	FitFactors map[string]any `json:"fit_factors,omitempty"`
	WhyFit     string         `json:"why_fit,omitempty"`
}

// FeedPage is one page of the ranked feed.
type FeedPage struct {
	Items []FeedItem `json:"items"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Total int        `json:"total"`
}

// HasNext reports whether another page follows this one.
func (p FeedPage) HasNext() bool {
	return p.Page*p.Limit < p.Total
}

// FeedFilter narrows the feed. Zero values are omitted from the query.
type FeedFilter struct {
	Location   string
	RemoteOnly bool
	Page       int
	Limit      int
}
