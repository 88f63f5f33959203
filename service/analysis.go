// Package service runs the analysis pipeline and the project operations on
// top of the store, the analyzer and their collaborators.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/seo-optimizer/seoscan/ai"
	"github.com/seo-optimizer/seoscan/analyzer"
	"github.com/seo-optimizer/seoscan/entitlement"
	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/models"
	"github.com/seo-optimizer/seoscan/ratelimit"
	"github.com/seo-optimizer/seoscan/urlcheck"
)

const defaultCacheSize = 1000

type PageAnalyzer interface {
	Analyze(ctx context.Context, pageURL string) (*analyzer.Report, error)
}

type Summarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, d ai.PageDigest) (ai.Result, error)
}

// AnalysisStore is the persistence used by the project pipeline.
type AnalysisStore interface {
	GetProject(ctx context.Context, id, userID string) (*models.Project, error)
	InsertAnalysis(ctx context.Context, a *models.Analysis) error
	TouchProject(ctx context.Context, id string, at time.Time) error
}

type SnapshotStore interface {
	PutHTML(ctx context.Context, projectID, analysisID, html string) (string, error)
}

// StatsRecorder receives the monthly pipeline counters.
type StatsRecorder interface {
	IncrementStats(cacheHits, cacheMisses, analyses, failures int)
}

// ProjectAnalysis is the response of a project analysis run.
type ProjectAnalysis struct {
	ID              string    `json:"id"`
	Score           int       `json:"score"`
	CriticalIssues  []string  `json:"criticalIssues"`
	Warnings        []string  `json:"warnings"`
	Recommendations []string  `json:"recommendations"`
	AnalyzedAt      time.Time `json:"analyzedAt"`
}

// AdhocResult is the response of an ad-hoc URL analysis.
type AdhocResult struct {
	URL          string    `json:"url"`
	Score        int       `json:"score"`
	Improvements []string  `json:"improvements"`
	Source       ai.Source `json:"source"`
}

// AnalysisDeps wires an AnalysisService. Snapshots and Stats are optional.
type AnalysisDeps struct {
	Store       AnalysisStore
	Analyzer    PageAnalyzer
	Summarizer  Summarizer
	Limiter     ratelimit.Limiter
	Entitlement entitlement.Checker
	Snapshots   SnapshotStore
	Stats       StatsRecorder
	URLPolicy   urlcheck.Policy
	CacheTTL    time.Duration
	Logger      *slog.Logger
}

type AnalysisService struct {
	deps   AnalysisDeps
	cache  *resultCache
	logger *slog.Logger
	newID  func() string
}

func NewAnalysisService(deps AnalysisDeps) *AnalysisService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		deps:   deps,
		cache:  newResultCache(deps.CacheTTL, defaultCacheSize),
		logger: logger,
		newID:  func() string { return uuid.New().String() },
	}
}

func (s *AnalysisService) record(cacheHits, cacheMisses, analyses, failures int) {
	if s.deps.Stats != nil {
		s.deps.Stats.IncrementStats(cacheHits, cacheMisses, analyses, failures)
	}
}

// AnalyzeProject fetches and scores the project's URL and appends the result
// to its history. Ownership, entitlement, rate limit and URL checks all run
// before the page is fetched; a failed fetch persists nothing.
func (s *AnalysisService) AnalyzeProject(ctx context.Context, user models.User, projectID string) (*ProjectAnalysis, error) {
	log := s.logger.With("project_id", projectID, "user_id", user.ID)

	project, err := s.deps.Store.GetProject(ctx, projectID, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Entitlement.Check(ctx, user); err != nil {
		return nil, err
	}
	if err := s.deps.Limiter.Allow(ctx, *project); err != nil {
		return nil, err
	}

	pageURL, err := urlcheck.Validate(project.URL, s.deps.URLPolicy)
	if err != nil {
		return nil, err
	}
	log = log.With("url", pageURL)

	report, err := s.deps.Analyzer.Analyze(ctx, pageURL)
	if err != nil {
		s.record(0, 0, 0, 1)
		log.Warn("page fetch failed", "error", err)
		return nil, err
	}
	log.Info("page analyzed",
		"score", report.Verdict.Score,
		"critical_issues", len(report.Verdict.CriticalIssues),
		"load_time_ms", report.Signals.LoadTimeMS,
		"page_size_kb", report.Signals.PageSizeKB)

	row := toAnalysis(s.newID(), project.ID, report)
	if s.deps.Snapshots != nil {
		key, err := s.deps.Snapshots.PutHTML(ctx, project.ID, row.ID, report.HTML)
		if err != nil {
			log.Warn("snapshot upload failed", "analysis_id", row.ID, "error", err)
		} else {
			row.SnapshotKey = key
		}
	}

	if err := s.deps.Store.InsertAnalysis(ctx, row); err != nil {
		s.record(0, 0, 0, 1)
		log.Error("analysis insert failed", "error", err)
		return nil, err
	}
	if err := s.deps.Store.TouchProject(ctx, project.ID, row.AnalyzedAt); err != nil {
		// the analysis row is already committed
		log.Warn("project timestamp update failed", "error", err)
	}
	if err := s.deps.Limiter.Record(ctx, project.ID, row.AnalyzedAt); err != nil {
		log.Warn("rate limiter record failed", "error", err)
	}
	s.record(0, 0, 1, 0)

	return &ProjectAnalysis{
		ID:              row.ID,
		Score:           report.Verdict.Score,
		CriticalIssues:  report.Verdict.CriticalIssues,
		Warnings:        report.Verdict.Warnings,
		Recommendations: report.Verdict.Recommendations,
		AnalyzedAt:      row.AnalyzedAt,
	}, nil
}

func toAnalysis(id, projectID string, r *analyzer.Report) *models.Analysis {
	sig := r.Signals
	return &models.Analysis{
		ID:                    id,
		ProjectID:             projectID,
		AnalyzedAt:            r.AnalyzedAt,
		OverallScore:          r.Verdict.Score,
		Title:                 sig.Title,
		TitleLength:           sig.TitleLength,
		MetaDescription:       sig.MetaDescription,
		MetaDescriptionLength: sig.MetaDescriptionLength,
		CanonicalURL:          sig.CanonicalURL,
		RobotsMeta:            sig.RobotsMeta,
		OGTitle:               sig.OGTitle,
		OGDescription:         sig.OGDescription,
		OGImage:               sig.OGImage,
		TwitterCard:           sig.TwitterCard,
		H1Count:               sig.H1Count,
		H1Tags:                models.JSONList(sig.H1Tags),
		H2Count:               sig.H2Count,
		ImagesTotal:           sig.ImagesTotal,
		ImagesWithAlt:         sig.ImagesWithAlt,
		ImagesWithoutAlt:      sig.ImagesWithoutAlt,
		InternalLinks:         sig.InternalLinks,
		ExternalLinks:         sig.ExternalLinks,
		WordCount:             sig.WordCount,
		PageSizeKB:            sig.PageSizeKB,
		PageLoadTime:          sig.LoadTimeMS,
		IsHTTPS:               sig.IsHTTPS,
		HasViewportMeta:       sig.HasViewportMeta,
		MobileFriendly:        sig.MobileFriendly,
		HasSchemaMarkup:       sig.HasSchemaMarkup,
		SchemaTypes:           models.JSONList(sig.SchemaTypes),
		CriticalIssues:        models.JSONList(r.Verdict.CriticalIssues),
		Warnings:              models.JSONList(r.Verdict.Warnings),
		Recommendations:       models.JSONList(r.Verdict.Recommendations),
		RawHTML:               analyzer.TruncateHTML(r.HTML),
	}
}

// AnalyzeURL scores a URL through the summarizer without persisting
// anything. An unreachable page is still summarized, from a digest that
// says so. Model results are cached per normalized URL.
func (s *AnalysisService) AnalyzeURL(ctx context.Context, rawURL string) (*AdhocResult, error) {
	pageURL, err := urlcheck.Validate(rawURL, s.deps.URLPolicy)
	if err != nil {
		return nil, err
	}
	if s.deps.Summarizer == nil || !s.deps.Summarizer.Enabled() {
		return nil, errs.New(errs.NotConfigured, "summarizer not configured")
	}

	if cached, ok := s.cache.get(pageURL); ok {
		s.record(1, 0, 0, 0)
		return &cached, nil
	}
	s.record(0, 1, 0, 0)

	log := s.logger.With("url", pageURL)
	digest := ai.PageDigest{URL: pageURL}
	report, err := s.deps.Analyzer.Analyze(ctx, pageURL)
	if err != nil {
		log.Warn("page fetch failed, summarizing without content", "error", err)
	} else {
		digest.Reachable = true
		digest.Title = report.Signals.Title
		digest.MetaDescription = report.Signals.MetaDescription
		digest.H1Count = report.Signals.H1Count
		digest.ImagesTotal = report.Signals.ImagesTotal
		digest.ImagesWithAlt = report.Signals.ImagesWithAlt
	}

	res, err := s.deps.Summarizer.Summarize(ctx, digest)
	if err != nil {
		log.Error("summarizer failed", "error", err)
		return nil, err
	}
	if res.Source == ai.SourceFallback {
		log.Warn("model reply had no usable JSON, using fallback")
	}

	out := AdhocResult{
		URL:          pageURL,
		Score:        res.Payload.Score,
		Improvements: res.Payload.Improvements,
		Source:       res.Source,
	}
	if res.Source == ai.SourceModel {
		s.cache.put(pageURL, out)
	}
	log.Info("ad-hoc analysis complete", "score", out.Score, "source", out.Source)
	return &out, nil
}
