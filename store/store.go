// Package store is the persistence adapter for users, projects and analyses.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/models"
)

const DefaultHistoryLimit = 10

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("api_token = ?", token).First(&u).Error; err != nil {
		return nil, notFoundOr(err, "user", "load user")
	}
	return &u, nil
}

// ListProjects returns the user's active projects, newest first.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	var out []models.Project
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.ProjectActive).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, errs.Wrap(errs.PersistenceFailure, "list projects", err)
	}
	return out, nil
}

func (s *Store) CountProjects(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&models.Project{}).
		Where("user_id = ? AND status = ?", userID, models.ProjectActive).
		Count(&n).Error
	if err != nil {
		return 0, errs.Wrap(errs.PersistenceFailure, "count projects", err)
	}
	return n, nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return errs.Wrap(errs.PersistenceFailure, "insert project", err)
	}
	return nil
}

// GetProject loads a project owned by userID. Projects of other users are
// reported as not found.
func (s *Store) GetProject(ctx context.Context, id, userID string) (*models.Project, error) {
	var p models.Project
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error
	if err != nil {
		return nil, notFoundOr(err, "project", "load project")
	}
	return &p, nil
}

// DeleteProject removes a project and its analysis history.
func (s *Store) DeleteProject(ctx context.Context, id, userID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Project{})
		if res.Error != nil {
			return errs.Wrap(errs.PersistenceFailure, "delete project", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.New(errs.NotFound, "project not found")
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Analysis{}).Error; err != nil {
			return errs.Wrap(errs.PersistenceFailure, "delete analyses", err)
		}
		return nil
	})
}

func (s *Store) InsertAnalysis(ctx context.Context, a *models.Analysis) error {
	if err := s.DB.WithContext(ctx).Create(a).Error; err != nil {
		return errs.Wrap(errs.PersistenceFailure, "insert analysis", err)
	}
	return nil
}

// TouchProject sets last_analyzed_at. Concurrent calls race; the last write wins.
func (s *Store) TouchProject(ctx context.Context, id string, at time.Time) error {
	err := s.DB.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", id).
		Update("last_analyzed_at", at).Error
	if err != nil {
		return errs.Wrap(errs.PersistenceFailure, "update project", err)
	}
	return nil
}

// ListAnalyses returns up to limit analyses, newest first, without raw HTML.
func (s *Store) ListAnalyses(ctx context.Context, projectID string, limit int) ([]models.Analysis, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var out []models.Analysis
	err := s.DB.WithContext(ctx).
		Omit("raw_html").
		Where("project_id = ?", projectID).
		Order("analyzed_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, errs.Wrap(errs.PersistenceFailure, "list analyses", err)
	}
	return out, nil
}

func (s *Store) GetAnalysis(ctx context.Context, id, projectID string) (*models.Analysis, error) {
	var a models.Analysis
	err := s.DB.WithContext(ctx).
		Where("id = ? AND project_id = ?", id, projectID).
		First(&a).Error
	if err != nil {
		return nil, notFoundOr(err, "analysis", "load analysis")
	}
	return &a, nil
}

func (s *Store) CountAnalysesSince(ctx context.Context, projectID string, since time.Time) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&models.Analysis{}).
		Where("project_id = ? AND analyzed_at >= ?", projectID, since).
		Count(&n).Error
	if err != nil {
		return 0, errs.Wrap(errs.PersistenceFailure, "count analyses", err)
	}
	return n, nil
}

func notFoundOr(err error, what, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.New(errs.NotFound, what+" not found")
	}
	return errs.Wrap(errs.PersistenceFailure, op, err)
}
