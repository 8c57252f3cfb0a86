package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"moodlog/internal/insight"
	"moodlog/internal/logger"
	"moodlog/internal/model"
)

// JournalService owns entry CRUD. Every entry is scored on write; a scoring
// failure still saves the text and leaves the entry unscored.
type JournalService struct {
	db      *gorm.DB
	scorer  Scorer
	catalog *CatalogSync
	now     func() time.Time
	newID   func() string
}

func NewJournalService(db *gorm.DB, scorer Scorer, now func() time.Time) *JournalService {
	if now == nil {
		now = time.Now
	}
	return &JournalService{db: db, scorer: scorer, now: now, newID: uuid.NewString}
}

// WithCatalog mirrors scored entries into the MOI catalog.
func (s *JournalService) WithCatalog(c *CatalogSync) *JournalService {
	s.catalog = c
	return s
}

func (s *JournalService) Create(ctx context.Context, userID, content string) (*model.JournalEntry, error) {
	now := s.now().UTC()
	entry := model.JournalEntry{
		ID:        s.newID(),
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.score(ctx, &entry)

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("%w: insert entry: %w", ErrStoreUnavailable, err)
	}
	logger.Info("entry.created", "user_id", userID, "id", entry.ID, "scored", entry.Scored())
	s.sync(ctx, entry)
	return &entry, nil
}

// Update replaces the text and rescores. The original creation time, and so
// the week the entry belongs to, is kept.
func (s *JournalService) Update(ctx context.Context, userID, id, content string) (*model.JournalEntry, error) {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	entry.Content = content
	entry.UpdatedAt = s.now().UTC()
	s.score(ctx, entry)

	err = s.db.WithContext(ctx).Model(entry).
		Select("content", "emotion_scores", "personality_scores", "scored_at", "updated_at").
		Updates(entry).Error
	if err != nil {
		return nil, fmt.Errorf("%w: update entry: %w", ErrStoreUnavailable, err)
	}
	logger.Info("entry.updated", "user_id", userID, "id", id, "scored", entry.Scored())
	s.sync(ctx, *entry)
	return entry, nil
}

func (s *JournalService) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.JournalEntry{})
	if res.Error != nil {
		return fmt.Errorf("%w: delete entry: %w", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	logger.Info("entry.deleted", "user_id", userID, "id", id)
	return nil
}

func (s *JournalService) Get(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get entry: %w", ErrStoreUnavailable, err)
	}
	return &entry, nil
}

// List returns the user's entries newest first; a zero bound is open.
func (s *JournalService) List(ctx context.Context, userID string, from, to time.Time) ([]model.JournalEntry, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to.UTC())
	}
	var entries []model.JournalEntry
	if err := q.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: list entries: %w", ErrStoreUnavailable, err)
	}
	return entries, nil
}

// Samples returns the emotion scores of every scored entry for charting.
func (s *JournalService) Samples(ctx context.Context, userID string) ([]insight.Sample, error) {
	entries, err := s.scored(ctx, userID)
	if err != nil {
		return nil, err
	}
	samples := make([]insight.Sample, len(entries))
	for i, e := range entries {
		samples[i] = insight.Sample{CreatedAt: e.CreatedAt, Emotions: e.EmotionScores.Data()}
	}
	return samples, nil
}

// Personality averages the Big Five scores over every scored entry.
func (s *JournalService) Personality(ctx context.Context, userID string) (model.PersonalityScores, error) {
	entries, err := s.scored(ctx, userID)
	if err != nil {
		return model.PersonalityScores{}, err
	}
	scores := make([]model.PersonalityScores, len(entries))
	for i, e := range entries {
		scores[i] = e.PersonalityScores.Data()
	}
	return insight.Personality(scores), nil
}

func (s *JournalService) scored(ctx context.Context, userID string) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND scored_at IS NOT NULL", userID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: scored entries: %w", ErrStoreUnavailable, err)
	}
	return entries, nil
}

func (s *JournalService) score(ctx context.Context, entry *model.JournalEntry) {
	entry.ScoredAt = nil
	entry.EmotionScores = datatypes.NewJSONType(model.EmotionScores{})
	entry.PersonalityScores = datatypes.NewJSONType(model.PersonalityScores{})
	if s.scorer == nil {
		return
	}

	raw, err := s.scorer.Score(ctx, entryEvaluationPrompt(entry.Content), EntryEvaluationSchema)
	if err != nil {
		logger.Warn("entry.score_failed", "user_id", entry.UserID, "err", err)
		return
	}
	eval, err := ParseEntryEvaluation(raw)
	if err != nil {
		logger.Warn("entry.score_malformed", "user_id", entry.UserID, "raw", raw, "err", err)
		return
	}
	at := s.now().UTC()
	entry.EmotionScores = datatypes.NewJSONType(eval.Emotions)
	entry.PersonalityScores = datatypes.NewJSONType(eval.Personality)
	entry.ScoredAt = &at
}

func (s *JournalService) sync(ctx context.Context, entry model.JournalEntry) {
	if s.catalog == nil || !entry.Scored() {
		return
	}
	go s.catalog.SyncEntry(context.WithoutCancel(ctx), entry)
}
