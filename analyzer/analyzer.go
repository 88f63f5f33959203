package analyzer

import (
	"context"
	"time"
	"unicode/utf8"
)

// MaxStoredHTML is how much of a page's HTML is kept with a persisted analysis.
const MaxStoredHTML = 50000

// Analyzer runs the fetch, extract and score pipeline for one page.
type Analyzer struct {
	fetcher *Fetcher
	now     func() time.Time
}

// New creates an Analyzer that fetches with the given timeout and body cap.
func New(timeout time.Duration, maxBodyBytes int64) *Analyzer {
	return &Analyzer{
		fetcher: NewFetcher(timeout, maxBodyBytes),
		now:     time.Now,
	}
}

// Analyze fetches pageURL and scores it. pageURL must already be validated.
// Fetch failures are returned as errs.FetchFailed.
func (a *Analyzer) Analyze(ctx context.Context, pageURL string) (*Report, error) {
	page, err := a.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	signals := Extract(page.HTML, pageURL)
	signals.PageSizeKB = page.SizeKB
	signals.LoadTimeMS = page.LoadTime.Milliseconds()

	return &Report{
		URL:        pageURL,
		Signals:    signals,
		Verdict:    Score(signals),
		AnalyzedAt: a.now().UTC(),
		HTML:       page.HTML,
	}, nil
}

// TruncateHTML returns at most MaxStoredHTML bytes of html without splitting
// a UTF-8 sequence.
func TruncateHTML(html string) string {
	if len(html) <= MaxStoredHTML {
		return html
	}
	cut := MaxStoredHTML
	for cut > 0 && !utf8.RuneStart(html[cut]) {
		cut--
	}
	return html[:cut]
}
