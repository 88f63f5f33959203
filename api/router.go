package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoscan/middleware"
)

// RouterDeps carries the middleware collaborators. Throttle and Tracker are
// optional.
type RouterDeps struct {
	Users    middleware.UserLookup
	Throttle *middleware.RateLimiter
	Tracker  middleware.RequestTracker
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type, Accept, Cache-Control, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// NewRouter builds the engine with all routes registered on s.
func NewRouter(s *Server, deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorHandler(s.Logger))
	r.Use(cors())
	if deps.Tracker != nil {
		r.Use(middleware.StatsMiddleware(deps.Tracker, s.Logger))
	}
	if deps.Throttle != nil {
		r.Use(deps.Throttle.RateLimit())
	}

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/analyze", s.analyzeURL)
		api.GET("/statistics", s.statistics)

		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth(deps.Users, s.Logger))
		{
			projects.GET("", s.listProjects)
			projects.POST("", s.createProject)
			projects.GET("/:id", s.getProject)
			projects.DELETE("/:id", s.deleteProject)
			projects.POST("/:id/analyze", s.analyzeProject)
			projects.GET("/:id/analyses", s.listAnalyses)
			projects.GET("/:id/analyses/:analysisId", s.getAnalysis)
		}
	}

	return r
}
