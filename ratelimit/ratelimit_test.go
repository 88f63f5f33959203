package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/models"
)

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) CountAnalysesSince(ctx context.Context, projectID string, since time.Time) (int64, error) {
	args := m.Called(ctx, projectID, since)
	return args.Get(0).(int64), args.Error(1)
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStoreLimiter(c AnalysisCounter) *StoreLimiter {
	l := NewStoreLimiter(c)
	l.now = func() time.Time { return fixedNow }
	return l
}

func TestStoreLimiterCooldown(t *testing.T) {
	counter := new(mockCounter)
	l := newTestStoreLimiter(counter)

	last := fixedNow.Add(-30 * time.Second)
	err := l.Allow(context.Background(), models.Project{ID: "p1", LastAnalyzedAt: &last})

	assert.Equal(t, errs.RateLimited, errs.KindOf(err))
	counter.AssertNotCalled(t, "CountAnalysesSince", mock.Anything, mock.Anything, mock.Anything)
}

func TestStoreLimiterAllowsAfterCooldown(t *testing.T) {
	counter := new(mockCounter)
	counter.On("CountAnalysesSince", mock.Anything, "p1", fixedNow.Add(-Window)).Return(int64(9), nil)
	l := newTestStoreLimiter(counter)

	last := fixedNow.Add(-Cooldown)
	assert.NoError(t, l.Allow(context.Background(), models.Project{ID: "p1", LastAnalyzedAt: &last}))
	counter.AssertExpectations(t)
}

func TestStoreLimiterWindow(t *testing.T) {
	tests := []struct {
		name    string
		count   int64
		limited bool
	}{
		{"at limit", MaxPerWindow, false},
		{"over limit", MaxPerWindow + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := new(mockCounter)
			counter.On("CountAnalysesSince", mock.Anything, "p1", mock.Anything).Return(tt.count, nil)
			l := newTestStoreLimiter(counter)

			err := l.Allow(context.Background(), models.Project{ID: "p1"})
			if tt.limited {
				assert.Equal(t, errs.RateLimited, errs.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStoreLimiterCounterError(t *testing.T) {
	counter := new(mockCounter)
	counter.On("CountAnalysesSince", mock.Anything, "p1", mock.Anything).
		Return(int64(0), errs.Wrap(errs.PersistenceFailure, "count analyses", errors.New("down")))
	l := newTestStoreLimiter(counter)

	err := l.Allow(context.Background(), models.Project{ID: "p1"})
	assert.Equal(t, errs.PersistenceFailure, errs.KindOf(err))
}
