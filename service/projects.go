package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seo-optimizer/seoscan/entitlement"
	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/models"
	"github.com/seo-optimizer/seoscan/urlcheck"
)

const (
	maxHistoryLimit   = 100
	maxProjectNameLen = 255
)

type ProjectStore interface {
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	CountProjects(ctx context.Context, userID string) (int64, error)
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id, userID string) (*models.Project, error)
	DeleteProject(ctx context.Context, id, userID string) error
	ListAnalyses(ctx context.Context, projectID string, limit int) ([]models.Analysis, error)
	GetAnalysis(ctx context.Context, id, projectID string) (*models.Analysis, error)
}

type ProjectService struct {
	store       ProjectStore
	entitlement entitlement.Checker
	policy      urlcheck.Policy
	newID       func() string
}

func NewProjectService(store ProjectStore, checker entitlement.Checker, policy urlcheck.Policy) *ProjectService {
	return &ProjectService{
		store:       store,
		entitlement: checker,
		policy:      policy,
		newID:       func() string { return uuid.New().String() },
	}
}

func (s *ProjectService) List(ctx context.Context, user models.User) ([]models.Project, error) {
	return s.store.ListProjects(ctx, user.ID)
}

// Create adds a project after checking the plan's project limit. The URL is
// stored in normalized form.
func (s *ProjectService) Create(ctx context.Context, user models.User, name, rawURL string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxProjectNameLen {
		return nil, errs.New(errs.InvalidInput, "project name is required")
	}
	pageURL, err := urlcheck.Validate(rawURL, s.policy)
	if err != nil {
		return nil, err
	}

	limit := s.entitlement.ProjectLimit(user)
	if limit == 0 {
		return nil, errs.New(errs.SubscriptionRequired, "user "+user.ID+" has no plan")
	}
	count, err := s.store.CountProjects(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !entitlement.Allows(limit, count) {
		return nil, errs.New(errs.ProjectLimitReached, "project limit reached")
	}

	now := time.Now().UTC()
	p := &models.Project{
		ID:        s.newID(),
		UserID:    user.ID,
		Name:      name,
		URL:       pageURL,
		Status:    models.ProjectActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, user models.User, id string) (*models.Project, error) {
	return s.store.GetProject(ctx, id, user.ID)
}

func (s *ProjectService) Delete(ctx context.Context, user models.User, id string) error {
	return s.store.DeleteProject(ctx, id, user.ID)
}

// History lists a project's analyses, newest first. limit <= 0 selects the
// store default; it is capped at 100.
func (s *ProjectService) History(ctx context.Context, user models.User, projectID string, limit int) ([]models.Analysis, error) {
	if _, err := s.store.GetProject(ctx, projectID, user.ID); err != nil {
		return nil, err
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.store.ListAnalyses(ctx, projectID, limit)
}

func (s *ProjectService) Analysis(ctx context.Context, user models.User, projectID, analysisID string) (*models.Analysis, error) {
	if _, err := s.store.GetProject(ctx, projectID, user.ID); err != nil {
		return nil, err
	}
	return s.store.GetAnalysis(ctx, analysisID, projectID)
}
