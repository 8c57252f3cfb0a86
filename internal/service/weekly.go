package service

import (
	"context"
	"fmt"
	"time"

	"moodlog/internal/calendar"
	"moodlog/internal/logger"
	"moodlog/internal/model"
	"moodlog/internal/week"
)

// WeeklyService answers generateWeeklyReport: resolve the user's week,
// gate on the ready day, then serve the cached report or synthesise one.
type WeeklyService struct {
	cache    *ReportCache
	synth    *Synthesizer
	catalog  *CatalogSync
	readyDay time.Weekday
	now      func() time.Time
}

func NewWeeklyService(cache *ReportCache, synth *Synthesizer, readyDay time.Weekday, now func() time.Time) *WeeklyService {
	if now == nil {
		now = time.Now
	}
	return &WeeklyService{cache: cache, synth: synth, readyDay: readyDay, now: now}
}

// WithCatalog mirrors newly stored reports into the MOI catalog.
func (s *WeeklyService) WithCatalog(c *CatalogSync) *WeeklyService {
	s.catalog = c
	return s
}

func (s *WeeklyService) ReadyDay() time.Weekday { return s.readyDay }

// Generate never synthesises when the gate is closed, and never stores a
// report for a window other than the one resolved for today in tz.
func (s *WeeklyService) Generate(ctx context.Context, userID, tz string) (*model.WeeklyReportResponse, error) {
	loc := calendar.Location(tz)
	today := calendar.DateOf(s.now().In(loc))
	gate := week.CheckReady(today, s.readyDay)
	w := gate.Window

	resp := &model.WeeklyReportResponse{
		Ready:         gate.Ready,
		IsCurrentWeek: w.IsCurrentWeek,
		WeekStart:     w.Start,
		WeekEnd:       w.End,
		Timezone:      loc.String(),
	}
	if !gate.Ready {
		days := gate.DaysUntilReady
		resp.DaysUntilReady = &days
		resp.Message = fmt.Sprintf("Weekly reports are generated on %ss. Your next report will be ready in %d day%s.",
			s.readyDay, days, plural(days))
		logger.Info("report.not_ready", "user_id", userID, "today", today, "days_until_ready", days)
		return resp, nil
	}

	res, err := s.cache.GetOrCreate(ctx, userID, w, func(ctx context.Context) (*model.ReportPayload, error) {
		return s.synth.Synthesize(ctx, userID, w.UTC(loc))
	})
	if err != nil {
		return nil, err
	}
	if res.Persisted && !res.Cached && s.catalog != nil {
		report := res.Report
		go s.catalog.SyncWeeklyReport(context.WithoutCancel(ctx), report)
	}

	p := res.Report.Payload()
	cached := res.Cached
	resp.ID = res.Report.ID
	resp.EmotionScores = &p.EmotionScores
	resp.Themes = p.Themes
	resp.Recommendations = &p.Recommendations
	resp.Highlights = p.Highlights
	resp.Lowlights = p.Lowlights
	resp.Cached = &cached
	if res.Persisted {
		created := res.Report.CreatedAt
		resp.CreatedAt = &created
	}
	return resp, nil
}

// History lists stored reports, newest first.
func (s *WeeklyService) History(ctx context.Context, userID string, limit int) ([]model.WeeklyReport, error) {
	return s.cache.List(ctx, userID, limit)
}

func (s *WeeklyService) ByWeekStart(ctx context.Context, userID string, start calendar.Date) (*model.WeeklyReport, error) {
	return s.cache.ByWeekStart(ctx, userID, start)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
