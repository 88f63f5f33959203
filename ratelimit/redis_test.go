package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/models"
)

func newTestRedisLimiter(client *redis.Client) *RedisLimiter {
	l := NewRedisLimiter(client, nil)
	l.now = func() time.Time { return fixedNow }
	return l
}

func windowCutoff() string {
	return "(" + strconv.FormatInt(fixedNow.Add(-Window).UnixMilli(), 10)
}

func TestRedisLimiterAllows(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := newTestRedisLimiter(db)

	mock.ExpectExists(cooldownKey("p1")).SetVal(0)
	mock.ExpectZRemRangeByScore(windowKey("p1"), "-inf", windowCutoff()).SetVal(0)
	mock.ExpectZCard(windowKey("p1")).SetVal(3)

	assert.NoError(t, l.Allow(context.TODO(), models.Project{ID: "p1"}))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisLimiterCooldown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := newTestRedisLimiter(db)

	mock.ExpectExists(cooldownKey("p1")).SetVal(1)

	err := l.Allow(context.TODO(), models.Project{ID: "p1"})
	assert.Equal(t, errs.RateLimited, errs.KindOf(err))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisLimiterWindow(t *testing.T) {
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
			db, mock := redismock.NewClientMock()
			l := newTestRedisLimiter(db)

			mock.ExpectExists(cooldownKey("p1")).SetVal(0)
			mock.ExpectZRemRangeByScore(windowKey("p1"), "-inf", windowCutoff()).SetVal(2)
			mock.ExpectZCard(windowKey("p1")).SetVal(tt.count)

			err := l.Allow(context.TODO(), models.Project{ID: "p1"})
			if tt.limited {
				assert.Equal(t, errs.RateLimited, errs.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRedisLimiterRecord(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := newTestRedisLimiter(db)

	mock.ExpectSet(cooldownKey("p1"), fixedNow.UnixMilli(), Cooldown).SetVal("OK")
	mock.ExpectZAdd(windowKey("p1"), redis.Z{
		Score:  float64(fixedNow.UnixMilli()),
		Member: strconv.FormatInt(fixedNow.UnixNano(), 10),
	}).SetVal(1)
	mock.ExpectExpire(windowKey("p1"), Window).SetVal(true)

	assert.NoError(t, l.Record(context.TODO(), "p1", fixedNow))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisLimiterRecordError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := newTestRedisLimiter(db)

	mock.ExpectSet(cooldownKey("p1"), fixedNow.UnixMilli(), Cooldown).SetErr(errors.New("connection refused"))

	assert.Error(t, l.Record(context.TODO(), "p1", fixedNow))
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := newTestRedisLimiter(db)

	mock.ExpectExists(cooldownKey("p1")).SetErr(errors.New("connection refused"))

	assert.NoError(t, l.Allow(context.TODO(), models.Project{ID: "p1"}))
}
