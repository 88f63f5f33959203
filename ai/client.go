// Package ai asks an OpenAI-compatible chat completion endpoint for a score
// and a short list of improvements for a page.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/seo-optimizer/seoscan/errs"
)

const DefaultTimeout = 60 * time.Second

// Source tells whether a Result came from the model or from the fixed fallback.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Payload is the score and improvement list shown to the user.
type Payload struct {
	Score        int      `json:"score"`
	Improvements []string `json:"improvements"`
}

type Result struct {
	Payload Payload
	Source  Source
}

// PageDigest is the condensed view of a page sent to the model. Reachable is
// false when the page could not be fetched; the model is still asked.
type PageDigest struct {
	URL             string
	Reachable       bool
	Title           string
	MetaDescription string
	H1Count         int
	ImagesTotal     int
	ImagesWithAlt   int
}

// Client talks to the completion endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You are an SEO expert. Analyze the information about a web page and provide:
1. An SEO optimization score (0-100)
2. A list of 5-7 concrete, prioritized improvements

Reply ONLY with JSON in exactly this format:
{
  "score": 75,
  "improvements": [
    "Specific improvement 1",
    "Specific improvement 2"
  ]
}

Be critical but constructive. The score must reflect real problems.`

var fallbackImprovements = []string{
	"Optimize the page title (max 60 characters)",
	"Add an engaging meta description (max 160 characters)",
	"Include relevant keywords in the H1",
	"Add descriptive ALT attributes to all images",
	"Improve page load speed",
	"Implement schema markup for advanced SEO",
}

// Fallback is the fixed result used when the model reply has no usable JSON.
func Fallback() Result {
	improvements := make([]string, len(fallbackImprovements))
	copy(improvements, fallbackImprovements)
	return Result{
		Payload: Payload{Score: 50, Improvements: improvements},
		Source:  SourceFallback,
	}
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.BaseURL != "" && c.APIKey != "" && c.Model != ""
}

// Summarize asks the model to score d. Upstream HTTP failures are returned as
// errors; an unparseable reply is not an error and yields Fallback().
func (c *Client) Summarize(ctx context.Context, d PageDigest) (Result, error) {
	raw, err := c.chat(ctx, systemPrompt, userPrompt(d))
	if err != nil {
		return Result{}, err
	}

	p, ok := parsePayload(raw)
	if !ok {
		return Fallback(), nil
	}
	return Result{Payload: p, Source: SourceModel}, nil
}

func userPrompt(d PageDigest) string {
	var content string
	if d.Reachable {
		content = fmt.Sprintf("Title: %s\nMeta Description: %s\nH1 count: %d\nTotal images: %d\nImages with ALT: %d",
			d.Title, d.MetaDescription, d.H1Count, d.ImagesTotal, d.ImagesWithAlt)
	} else {
		content = "The URL could not be reached"
	}
	return fmt.Sprintf("Analyze this web page and give me the score and improvements in JSON format:\n\nURL: %s\n%s\n\nRemember: reply ONLY with the JSON, no additional text.",
		d.URL, content)
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	if !c.Enabled() {
		return "", errs.New(errs.NotConfigured, "llm not configured")
	}
	payload, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", errs.Wrap(errs.Internal, "encode chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", errs.Wrap(errs.UpstreamError, "build chat request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.UpstreamError, "chat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := fmt.Sprintf("llm status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return "", errs.New(errs.UpstreamRateLimited, msg)
		case http.StatusPaymentRequired:
			return "", errs.New(errs.UpstreamQuotaExhausted, msg)
		default:
			return "", errs.New(errs.UpstreamError, msg)
		}
	}

	var res chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", errs.Wrap(errs.UpstreamError, "decode chat response", err)
	}
	if len(res.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(res.Choices[0].Message.Content), nil
}

func (c *Client) endpoint() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

func parsePayload(text string) (Payload, bool) {
	raw := extractJSON(text)
	if raw == "" {
		return Payload{}, false
	}

	var out struct {
		Score        *float64 `json:"score"`
		Improvements []string `json:"improvements"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out.Score == nil {
		return Payload{}, false
	}

	score := math.Min(math.Max(*out.Score, 0), 100)
	return Payload{Score: int(math.Round(score)), Improvements: normalizeList(out.Improvements)}, true
}

// extractJSON returns the span from the first '{' to the last '}'.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, item := range items {
		v := strings.TrimSpace(item)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
