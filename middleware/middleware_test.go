package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(nil))
	r.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"An error occurred during the analysis. Please try again."}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestRespondErrorHidesDetail(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		RespondError(c, nil, errs.Wrap(errs.FetchFailed, "dial tcp 10.0.0.1:443", context.DeadlineExceeded))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
	assert.Contains(t, w.Body.String(), errs.UserMessage(errs.FetchFailed))
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func TestRequireAuth(t *testing.T) {
	users := new(mockUsers)
	users.On("GetUserByToken", mock.Anything, "good").Return(&models.User{ID: "u1"}, nil)
	users.On("GetUserByToken", mock.Anything, "bad").Return(nil, errs.New(errs.NotFound, "user not found"))

	r := gin.New()
	r.GET("/me", RequireAuth(users, nil), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		require.True(t, ok)
		c.String(http.StatusOK, u.ID)
	})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "u1", w.Body.String())
			}
		})
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.1.1.1"))
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.lastScan = now
	rl.now = func() time.Time { return now }

	rl.Allow("1.1.1.1")
	rl.Allow("2.2.2.2")
	assert.Equal(t, 2, rl.size())

	now = now.Add(11 * time.Minute)
	rl.Allow("3.3.3.3")
	assert.Equal(t, 1, rl.size())
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(0.001, 1).RateLimit())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

type fakeTracker struct {
	mu       sync.Mutex
	visitors []string
	targets  []string
	errors   int
}

func (f *fakeTracker) TrackVisitor(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visitors = append(f.visitors, ip)
}

func (f *fakeTracker) TrackAnalysis(target string, _ float64, hasError bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
	if hasError {
		f.errors++
	}
}

func (f *fakeTracker) TotalRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.targets)
}

func (f *fakeTracker) Save() error { return nil }

func TestStatsMiddleware(t *testing.T) {
	tracker := &fakeTracker{}
	r := gin.New()
	r.Use(StatsMiddleware(tracker, nil))
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/analyze", func(c *gin.Context) {
		c.Set(TargetKey, "https://example.com/")
		c.Status(http.StatusBadGateway)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/analyze", nil))

	assert.Len(t, tracker.visitors, 2)
	assert.Equal(t, []string{"https://example.com/"}, tracker.targets)
	assert.Equal(t, 1, tracker.errors)
}
