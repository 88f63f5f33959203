package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TargetKey is set by handlers to the URL an analysis request was about.
const TargetKey = "analysisTarget"

// analysisRoutes are the paths counted as analysis requests.
var analysisRoutes = map[string]bool{
	"/api/analyze":              true,
	"/api/projects/:id/analyze": true,
}

// RequestTracker is the subset of logging.Statistics used per request.
type RequestTracker interface {
	TrackVisitor(ip string)
	TrackAnalysis(target string, loadTime float64, hasError bool)
	TotalRequests() int
	Save() error
}

// StatsMiddleware tracks visitors and analysis requests and saves the
// statistics every 100 analyses.
func StatsMiddleware(stats RequestTracker, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		stats.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.Method != http.MethodPost || !analysisRoutes[c.FullPath()] {
			return
		}
		target := c.GetString(TargetKey)
		if target == "" {
			target = c.Request.URL.Path
		}
		loadTime := float64(time.Since(start).Milliseconds())
		stats.TrackAnalysis(target, loadTime, c.Writer.Status() >= http.StatusBadRequest)

		if stats.TotalRequests()%100 == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					logger.Warn("failed to save statistics", "error", err)
				}
			}()
		}
	}
}
