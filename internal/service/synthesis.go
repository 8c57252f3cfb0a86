package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"moodlog/internal/logger"
	"moodlog/internal/model"
	"moodlog/internal/week"
)

const entrySeparator = "\n\n---\n\n"

// Synthesizer turns one week of journal text into a report payload.
type Synthesizer struct {
	db     *gorm.DB
	scorer Scorer
}

func NewSynthesizer(db *gorm.DB, scorer Scorer) *Synthesizer {
	return &Synthesizer{db: db, scorer: scorer}
}

// Synthesize reads the user's entries in [r.Start, r.End) and asks the
// scorer for a structured report. It never writes.
func (s *Synthesizer) Synthesize(ctx context.Context, userID string, r week.Range) (*model.ReportPayload, error) {
	var entries []model.JournalEntry
	err := s.db.WithContext(ctx).
		Select("id", "content", "created_at").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, r.Start.UTC(), r.End.UTC()).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: fetch entries: %w", ErrStoreUnavailable, err)
	}

	text := combineEntries(entries)
	if text == "" {
		logger.Info("report.no_entries", "user_id", userID, "from", r.Start, "to", r.End, "rows", len(entries))
		return nil, ErrNoEntriesInWindow
	}

	raw, err := s.scorer.Score(ctx, weeklyReportPrompt(text), WeeklyReportSchema)
	if err != nil {
		logger.Error("report.ai_failed", "user_id", userID, "err", err)
		if !errors.Is(err, ErrAIService) {
			err = fmt.Errorf("%w: %w", ErrAIService, err)
		}
		return nil, err
	}

	payload, err := ParseReportPayload(raw)
	if err != nil {
		logger.Error("report.malformed_ai_response", "user_id", userID, "raw", raw, "err", err)
		return nil, err
	}
	logger.Info("report.synthesized", "user_id", userID, "entries", len(entries))
	return &payload, nil
}

func combineEntries(entries []model.JournalEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if c := strings.TrimSpace(e.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, entrySeparator)
}
