// Package api exposes the analysis pipeline and project management over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/middleware"
	"github.com/seo-optimizer/seoscan/models"
	"github.com/seo-optimizer/seoscan/service"
	"github.com/seo-optimizer/seoscan/stats"
)

type AnalysisRunner interface {
	AnalyzeProject(ctx context.Context, user models.User, projectID string) (*service.ProjectAnalysis, error)
	AnalyzeURL(ctx context.Context, rawURL string) (*service.AdhocResult, error)
}

type ProjectManager interface {
	List(ctx context.Context, user models.User) ([]models.Project, error)
	Create(ctx context.Context, user models.User, name, rawURL string) (*models.Project, error)
	Get(ctx context.Context, user models.User, id string) (*models.Project, error)
	Delete(ctx context.Context, user models.User, id string) error
	History(ctx context.Context, user models.User, projectID string, limit int) ([]models.Analysis, error)
	Analysis(ctx context.Context, user models.User, projectID, analysisID string) (*models.Analysis, error)
}

type StatsReporter interface {
	GetStatistics() map[string]interface{}
}

type MonthlyReporter interface {
	GetCurrentStats() stats.MonthlyStats
	GetAllMonths() []string
	GetMonthlyStats(yearMonth string) (stats.MonthlyStats, bool)
}

type monthStats struct {
	Month string `json:"month"`
	stats.MonthlyStats
}

// Server holds the handler dependencies.
type Server struct {
	Analyses AnalysisRunner
	Projects ProjectManager
	Stats    StatsReporter
	Monthly  MonthlyReporter // optional
	Logger   *slog.Logger
}

// analysisResponse renders the JSON list columns as plain string lists, so
// NULL columns come out as [].
type analysisResponse struct {
	models.Analysis
	H1Tags          []string `json:"h1Tags"`
	SchemaTypes     []string `json:"schemaTypes"`
	CriticalIssues  []string `json:"criticalIssues"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

func newAnalysisResponse(a models.Analysis) analysisResponse {
	return analysisResponse{
		Analysis:        a,
		H1Tags:          models.StringList(a.H1Tags),
		SchemaTypes:     models.StringList(a.SchemaTypes),
		CriticalIssues:  models.StringList(a.CriticalIssues),
		Warnings:        models.StringList(a.Warnings),
		Recommendations: models.StringList(a.Recommendations),
	}
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type createProjectRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) fail(c *gin.Context, err error) {
	middleware.RespondError(c, s.Logger, err)
}

func (s *Server) user(c *gin.Context) (models.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		s.fail(c, errs.New(errs.Unauthorized, "no user in context"))
	}
	return u, ok
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) analyzeURL(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.Wrap(errs.InvalidInput, "decode analyze request", err))
		return
	}
	c.Set(middleware.TargetKey, req.URL)

	res, err := s.Analyses.AnalyzeURL(c.Request.Context(), req.URL)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"url":          res.URL,
		"score":        res.Score,
		"improvements": res.Improvements,
		"source":       res.Source,
	})
}

func (s *Server) listProjects(c *gin.Context) {
	user, ok := s.user(c)
	if !ok {
		return
	}
	projects, err := s.Projects.List(c.Request.Context(), user)
	if err != nil {
		s.fail(c, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "projects": projects})
}

func (s *Server) createProject(c *gin.Context) {
	user, ok := s.user(c)
	if !ok {
		return
	}
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.Wrap(errs.InvalidInput, "decode project request", err))
		return
	}

	project, err := s.Projects.Create(c.Request.Context(), user, req.Name, req.URL)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "project": project})
}

func (s *Server) getProject(c *gin.Context) {
	user, ok := s.user(c)
	if !ok {
		return
	}
	project, err := s.Projects.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "project": project})
}

func (s *Server) deleteProject(c *gin.Context) {
	user, ok := s.user(c)
	if !ok {
		return
	}
	if err := s.Projects.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) analyzeProject(c *gin.Context) {
	user, ok := s.user(c)
	if !ok {
		return
	}
	res, err := s.Analyses.AnalyzeProject(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"id":              res.ID,
		"score":           res.Score,
		"criticalIssues":  res.CriticalIssues,
		"warnings":        res.Warnings,
		"recommendations": res.Recommendations,
		"analyzedAt":      res.AnalyzedAt,
	})
}

func (s *Server) listAnalyses(c *gin.Context) {
	user, ok := s.user(c)
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.fail(c, errs.New(errs.InvalidInput, "bad limit "+raw))
			return
		}
		limit = n
	}

	rows, err := s.Projects.History(c.Request.Context(), user, c.Param("id"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]analysisResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, newAnalysisResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analyses": out})
}

func (s *Server) getAnalysis(c *gin.Context) {
	user, ok := s.user(c)
	if !ok {
		return
	}
	row, err := s.Projects.Analysis(c.Request.Context(), user, c.Param("id"), c.Param("analysisId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": newAnalysisResponse(*row)})
}

func (s *Server) statistics(c *gin.Context) {
	out := s.Stats.GetStatistics()
	if s.Monthly != nil {
		out["currentMonth"] = s.Monthly.GetCurrentStats()

		months := []monthStats{}
		for _, month := range s.Monthly.GetAllMonths() {
			if ms, ok := s.Monthly.GetMonthlyStats(month); ok {
				months = append(months, monthStats{Month: month, MonthlyStats: ms})
			}
		}
		out["months"] = months
	}
	c.JSON(http.StatusOK, out)
}
