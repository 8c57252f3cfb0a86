package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"moodlog/internal/calendar"
	"moodlog/internal/logger"
	"moodlog/internal/model"
	"moodlog/internal/week"
)

// SynthesizeFunc produces the payload for a cache miss.
type SynthesizeFunc func(ctx context.Context) (*model.ReportPayload, error)

// CachedReport is the outcome of GetOrCreate. Cached is true when the report
// already existed (including when another caller won the insert race).
// Persisted is false only when the insert failed and the payload is served
// without a stored row.
type CachedReport struct {
	Report    model.WeeklyReport
	Cached    bool
	Persisted bool
}

// ReportCache stores at most one report per (user, week_start, week_end).
// Concurrent misses in one process share a single synthesis; across
// processes the unique index decides the winner.
type ReportCache struct {
	db    *gorm.DB
	group singleflight.Group
	now   func() time.Time
	newID func() string
}

func NewReportCache(db *gorm.DB, now func() time.Time) *ReportCache {
	if now == nil {
		now = time.Now
	}
	return &ReportCache{db: db, now: now, newID: uuid.NewString}
}

// Lookup returns the stored report for the exact window, or nil on a miss.
func (c *ReportCache) Lookup(ctx context.Context, userID string, start, end calendar.Date) (*model.WeeklyReport, error) {
	var r model.WeeklyReport
	err := c.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ? AND week_end = ?", userID, model.DateValue(start), model.DateValue(end)).
		Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup report: %w", ErrStoreUnavailable, err)
	}
	return &r, nil
}

// GetOrCreate returns the stored report for w, synthesising and storing it
// on a miss. A synthesis failure stores nothing. Once synthesis starts it
// runs to completion even if ctx is cancelled, so the result is cached for
// the next request.
func (c *ReportCache) GetOrCreate(ctx context.Context, userID string, w week.Window, synthesize SynthesizeFunc) (*CachedReport, error) {
	existing, err := c.Lookup(ctx, userID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info("report.cache_hit", "user_id", userID, "week", w.Key())
		return &CachedReport{Report: *existing, Cached: true, Persisted: true}, nil
	}

	detached := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do(userID+"|"+w.Key(), func() (interface{}, error) {
		// a flight that just finished may have stored it
		existing, err := c.Lookup(detached, userID, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &CachedReport{Report: *existing, Cached: true, Persisted: true}, nil
		}
		payload, err := synthesize(detached)
		if err != nil {
			return nil, err
		}
		return c.store(detached, userID, w, *payload), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("report.flight_shared", "user_id", userID, "week", w.Key())
	}
	res := *v.(*CachedReport)
	return &res, nil
}

func (c *ReportCache) store(ctx context.Context, userID string, w week.Window, p model.ReportPayload) *CachedReport {
	report := model.NewWeeklyReport(c.newID(), userID, w.Start, w.End, p)
	report.CreatedAt = c.now().UTC()

	res := c.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "week_start"}, {Name: "week_end"}},
			DoNothing: true,
		}).
		Create(&report)
	if res.Error != nil {
		logger.Error("report.persist_failed", "user_id", userID, "week", w.Key(), "err", res.Error)
		report.ID = ""
		return &CachedReport{Report: report}
	}

	if res.RowsAffected == 0 {
		winner, err := c.Lookup(ctx, userID, w.Start, w.End)
		if err != nil || winner == nil {
			logger.Error("report.persist_failed", "user_id", userID, "week", w.Key(), "err", err)
			report.ID = ""
			return &CachedReport{Report: report}
		}
		logger.Info("report.insert_conflict", "user_id", userID, "week", w.Key(), "winner", winner.ID)
		return &CachedReport{Report: *winner, Cached: true, Persisted: true}
	}

	logger.Info("report.stored", "user_id", userID, "week", w.Key(), "id", report.ID)
	return &CachedReport{Report: report, Persisted: true}
}

// List returns the user's stored reports, newest week first.
func (c *ReportCache) List(ctx context.Context, userID string, limit int) ([]model.WeeklyReport, error) {
	q := c.db.WithContext(ctx).Where("user_id = ?", userID).Order("week_start DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var reports []model.WeeklyReport
	if err := q.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("%w: list reports: %w", ErrStoreUnavailable, err)
	}
	return reports, nil
}

// ByWeekStart returns the stored report whose window starts on start.
func (c *ReportCache) ByWeekStart(ctx context.Context, userID string, start calendar.Date) (*model.WeeklyReport, error) {
	var r model.WeeklyReport
	err := c.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, model.DateValue(start)).
		Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get report: %w", ErrStoreUnavailable, err)
	}
	return &r, nil
}
