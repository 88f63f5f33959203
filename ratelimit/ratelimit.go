// Package ratelimit throttles repeated analysis of the same project.
//
// Both limiters are advisory: Allow and the later Record are not atomic, so
// two simultaneous requests for one project can both pass.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/models"
)

const (
	Cooldown     = 60 * time.Second
	Window       = 5 * time.Minute
	MaxPerWindow = 10
)

// Limiter decides whether a project may be analyzed now. A rejection is an
// errs.RateLimited error. Record is called once an analysis has been
// persisted; failed runs are never recorded.
type Limiter interface {
	Allow(ctx context.Context, project models.Project) error
	Record(ctx context.Context, projectID string, at time.Time) error
}

// AnalysisCounter is the part of the store the StoreLimiter reads.
type AnalysisCounter interface {
	CountAnalysesSince(ctx context.Context, projectID string, since time.Time) (int64, error)
}

// StoreLimiter derives both rules from persisted state: the project's
// last_analyzed_at and the number of analyses in the trailing window.
type StoreLimiter struct {
	counter AnalysisCounter
	now     func() time.Time
}

func NewStoreLimiter(counter AnalysisCounter) *StoreLimiter {
	return &StoreLimiter{counter: counter, now: time.Now}
}

func (l *StoreLimiter) Allow(ctx context.Context, project models.Project) error {
	now := l.now()

	if project.LastAnalyzedAt != nil && now.Sub(*project.LastAnalyzedAt) < Cooldown {
		return errs.New(errs.RateLimited, fmt.Sprintf("project %s analyzed %s ago", project.ID, now.Sub(*project.LastAnalyzedAt).Round(time.Second)))
	}

	n, err := l.counter.CountAnalysesSince(ctx, project.ID, now.Add(-Window))
	if err != nil {
		return err
	}
	if n > MaxPerWindow {
		return errs.New(errs.RateLimited, fmt.Sprintf("project %s has %d analyses in the last %s", project.ID, n, Window))
	}
	return nil
}

// Record is a no-op: the inserted row and last_analyzed_at are the state.
func (l *StoreLimiter) Record(context.Context, string, time.Time) error {
	return nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
