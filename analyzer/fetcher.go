package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/urlcheck"
)

const (
	// UserAgent is sent with every page fetch.
	UserAgent = "Mozilla/5.0 (compatible; SEO-Analyzer/1.0)"

	DefaultFetchTimeout = 30 * time.Second
	DefaultMaxBodyBytes = 10 << 20
	maxRedirects        = 5
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Fetcher retrieves a single page with a hard timeout. It makes one attempt
// per call; there is no retry.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
}

// NewFetcher creates a Fetcher. Zero values select the defaults.
func NewFetcher(timeout time.Duration, maxBodyBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: checkRedirect,
		},
		timeout:      timeout,
		maxBodyBytes: maxBodyBytes,
	}
}

// checkRedirect applies the same host rules to every redirect hop as to the
// original URL.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if _, err := urlcheck.Validate(req.URL.String(), urlcheck.Policy{RequireScheme: true}); err != nil {
		return fmt.Errorf("redirect to disallowed target: %w", err)
	}
	return nil
}

// Fetch issues a GET for pageURL. Network errors, timeouts and non-2xx
// statuses all return an errs.FetchFailed error.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.FetchFailed, "build request", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.FetchFailed, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errs.New(errs.FetchFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(resp.Body, f.maxBodyBytes)); err != nil {
		return nil, errs.Wrap(errs.FetchFailed, "read body", err)
	}
	loadTime := time.Since(start)

	return &Page{
		URL:        pageURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       buf.String(),
		LoadTime:   loadTime,
		SizeKB:     float64(buf.Len()) / 1024.0,
	}, nil
}
