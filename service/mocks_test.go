package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/seo-optimizer/seoscan/ai"
	"github.com/seo-optimizer/seoscan/analyzer"
	"github.com/seo-optimizer/seoscan/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetProject(ctx context.Context, id, userID string) (*models.Project, error) {
	args := m.Called(ctx, id, userID)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *mockStore) InsertAnalysis(ctx context.Context, a *models.Analysis) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStore) TouchProject(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockStore) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).([]models.Project)
	return p, args.Error(1)
}

func (m *mockStore) CountProjects(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) CreateProject(ctx context.Context, p *models.Project) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) DeleteProject(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockStore) ListAnalyses(ctx context.Context, projectID string, limit int) ([]models.Analysis, error) {
	args := m.Called(ctx, projectID, limit)
	a, _ := args.Get(0).([]models.Analysis)
	return a, args.Error(1)
}

func (m *mockStore) GetAnalysis(ctx context.Context, id, projectID string) (*models.Analysis, error) {
	args := m.Called(ctx, id, projectID)
	a, _ := args.Get(0).(*models.Analysis)
	return a, args.Error(1)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, pageURL string) (*analyzer.Report, error) {
	args := m.Called(ctx, pageURL)
	r, _ := args.Get(0).(*analyzer.Report)
	return r, args.Error(1)
}

type mockSummarizer struct {
	mock.Mock
	disabled bool
}

func (m *mockSummarizer) Enabled() bool {
	return !m.disabled
}

func (m *mockSummarizer) Summarize(ctx context.Context, d ai.PageDigest) (ai.Result, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(ai.Result), args.Error(1)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Allow(ctx context.Context, p models.Project) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockLimiter) Record(ctx context.Context, projectID string, at time.Time) error {
	return m.Called(ctx, projectID, at).Error(0)
}

type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) Check(ctx context.Context, u models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockChecker) ProjectLimit(u models.User) int {
	return m.Called(u).Int(0)
}

type mockSnapshots struct {
	mock.Mock
}

func (m *mockSnapshots) PutHTML(ctx context.Context, projectID, analysisID, html string) (string, error) {
	args := m.Called(ctx, projectID, analysisID, html)
	return args.String(0), args.Error(1)
}

type countingStats struct {
	hits, misses, analyses, failures int
}

func (c *countingStats) IncrementStats(hits, misses, analyses, failures int) {
	c.hits += hits
	c.misses += misses
	c.analyses += analyses
	c.failures += failures
}
