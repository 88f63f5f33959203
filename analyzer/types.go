package analyzer

import "time"

// Signals holds the on-page SEO attributes extracted from one HTML document.
// Absent tags yield empty strings and zero counts.
type Signals struct {
	Title                 string   `json:"title"`
	TitleLength           int      `json:"titleLength"`
	MetaDescription       string   `json:"metaDescription"`
	MetaDescriptionLength int      `json:"metaDescriptionLength"`
	CanonicalURL          string   `json:"canonicalUrl"`
	RobotsMeta            string   `json:"robotsMeta"`
	OGTitle               string   `json:"ogTitle"`
	OGDescription         string   `json:"ogDescription"`
	OGImage               string   `json:"ogImage"`
	TwitterCard           string   `json:"twitterCard"`
	H1Count               int      `json:"h1Count"`
	H1Tags                []string `json:"h1Tags"`
	H2Count               int      `json:"h2Count"`
	ImagesTotal           int      `json:"imagesTotal"`
	ImagesWithAlt         int      `json:"imagesWithAlt"`
	ImagesWithoutAlt      int      `json:"imagesWithoutAlt"`
	InternalLinks         int      `json:"internalLinks"`
	// ExternalLinks is absolute http(s) links minus InternalLinks and can be
	// negative when relative internal links outnumber absolute ones.
	ExternalLinks   int      `json:"externalLinks"`
	WordCount       int      `json:"wordCount"`
	SchemaTypes     []string `json:"schemaTypes"`
	IsHTTPS         bool     `json:"isHttps"`
	HasViewportMeta bool     `json:"hasViewportMeta"`
	MobileFriendly  bool     `json:"mobileFriendly"`
	HasSchemaMarkup bool     `json:"hasSchemaMarkup"`

	// Set by the fetcher, zero when extracting from a string.
	PageSizeKB float64 `json:"pageSizeKb"`
	LoadTimeMS int64   `json:"loadTimeMs"`
}

// Verdict is the scored outcome of a set of Signals.
type Verdict struct {
	Score           int      `json:"score"`
	CriticalIssues  []string `json:"criticalIssues"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// Page is a fetched document.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string
	LoadTime   time.Duration
	SizeKB     float64
}

// Report is the complete analysis of one page.
type Report struct {
	URL        string    `json:"url"`
	Signals    Signals   `json:"signals"`
	Verdict    Verdict   `json:"verdict"`
	AnalyzedAt time.Time `json:"analyzedAt"`
	HTML       string    `json:"-"`
}
