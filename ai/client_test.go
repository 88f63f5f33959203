package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seoscan/errs"
)

func replyWith(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
}

func TestSummarizeParsesModelJSON(t *testing.T) {
	srv := replyWith(t, "Sure! Here it is:\n```json\n{\"score\": 72, \"improvements\": [\"Fix title\", \" Fix title \", \"Add alt text\"]}\n```")
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "test-model", time.Second)
	res, err := c.Summarize(context.Background(), PageDigest{URL: "https://example.com/", Reachable: true, Title: "Home"})
	require.NoError(t, err)

	assert.Equal(t, SourceModel, res.Source)
	assert.Equal(t, 72, res.Payload.Score)
	assert.Equal(t, []string{"Fix title", "Add alt text"}, res.Payload.Improvements)
}

func TestSummarizeFallsBackOnFreeText(t *testing.T) {
	srv := replyWith(t, "I cannot analyze this page right now.")
	defer srv.Close()

	c := NewClient(srv.URL+"/v1", "secret", "test-model", time.Second)
	res, err := c.Summarize(context.Background(), PageDigest{URL: "https://example.com/"})
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, 50, res.Payload.Score)
	assert.Len(t, res.Payload.Improvements, 6)
}

func TestSummarizeFallsBackOnMalformedJSON(t *testing.T) {
	srv := replyWith(t, `{"score": 80, "improvements": [oops]}`)
	defer srv.Close()

	res, err := NewClient(srv.URL, "secret", "test-model", time.Second).
		Summarize(context.Background(), PageDigest{URL: "https://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, Fallback(), res)
}

func TestSummarizeStatusMapping(t *testing.T) {
	cases := map[int]errs.Kind{
		http.StatusTooManyRequests:     errs.UpstreamRateLimited,
		http.StatusPaymentRequired:     errs.UpstreamQuotaExhausted,
		http.StatusInternalServerError: errs.UpstreamError,
		http.StatusUnauthorized:        errs.UpstreamError,
	}

	for status, want := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		}))

		_, err := NewClient(srv.URL, "secret", "test-model", time.Second).
			Summarize(context.Background(), PageDigest{URL: "https://example.com/"})
		srv.Close()

		require.Error(t, err)
		assert.Equal(t, want, errs.KindOf(err), status)
	}
}

func TestSummarizeNotConfigured(t *testing.T) {
	_, err := NewClient("", "", "", 0).Summarize(context.Background(), PageDigest{})
	assert.Equal(t, errs.NotConfigured, errs.KindOf(err))
}

func TestParsePayloadClampsScore(t *testing.T) {
	p, ok := parsePayload(`{"score": 140, "improvements": []}`)
	require.True(t, ok)
	assert.Equal(t, 100, p.Score)

	p, ok = parsePayload(`{"score": -3}`)
	require.True(t, ok)
	assert.Equal(t, 0, p.Score)
	assert.NotNil(t, p.Improvements)

	p, ok = parsePayload(`{"score": 1e300}`)
	require.True(t, ok)
	assert.Equal(t, 100, p.Score)

	p, ok = parsePayload(`{"score": -1e300}`)
	require.True(t, ok)
	assert.Equal(t, 0, p.Score)

	p, ok = parsePayload(`{"score": 67.5}`)
	require.True(t, ok)
	assert.Equal(t, 68, p.Score)

	_, ok = parsePayload(`{"improvements": ["no score"]}`)
	assert.False(t, ok)
}

func TestFallbackIsACopy(t *testing.T) {
	a := Fallback()
	a.Payload.Improvements[0] = "changed"
	assert.NotEqual(t, "changed", Fallback().Payload.Improvements[0])
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "http://x/v1/chat/completions", (&Client{BaseURL: "http://x"}).endpoint())
	assert.Equal(t, "http://x/v1/chat/completions", (&Client{BaseURL: "http://x/v1/"}).endpoint())
	assert.Equal(t, "http://x/chat/completions", (&Client{BaseURL: "http://x/chat/completions"}).endpoint())
}

func TestUserPromptUnreachable(t *testing.T) {
	assert.Contains(t, userPrompt(PageDigest{URL: "https://down.example/"}), "could not be reached")
	assert.Contains(t, userPrompt(PageDigest{URL: "https://up.example/", Reachable: true, H1Count: 2}), "H1 count: 2")
}
