package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"moodlog/internal/model"
)

const validReportJSON = `{
  "emotion_scores": {"calm": 0.5, "anger": 0.1, "stress": 0.25, "anxiety": 0.2, "sadness": 0.1, "happiness": 0.75, "excitement": 0.4, "hopefulness": 0.6},
  "themes": ["work pressure", "family time", "sleep"],
  "recommendations": {
    "continue": "Keep your morning walks.",
    "explore": "Try writing a few lines before bed.",
    "consider": "Set a firmer end to the workday."
  },
  "highlights": ["Dinner with your sister", "Finishing the quarterly plan", "A long run on Saturday"],
  "lowlights": ["Two nights of poor sleep", "A tense standup on Tuesday", "Skipping lunch on Thursday"]
}`

const validEntryJSON = `{
  "mood": {"calm": 0.25, "anger": 0, "stress": 0.75, "anxiety": 0.5, "sadness": 0, "happiness": 0.25, "excitement": 0, "hopefulness": 0.5},
  "personality": {"openness": 70, "conscientiousness": 60, "extraversion": 40, "agreeableness": 80, "neuroticism": 30}
}`

// fakeScorer records prompts and answers through respond.
type fakeScorer struct {
	mu      sync.Mutex
	prompts []string
	schemas []string
	respond func(ctx context.Context, prompt string, schema Schema) (string, error)
}

func (f *fakeScorer) Score(ctx context.Context, prompt string, schema Schema) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.schemas = append(f.schemas, schema.Name)
	f.mu.Unlock()
	return f.respond(ctx, prompt, schema)
}

func (f *fakeScorer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeScorer) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// newFakeScorer answers each schema with its valid fixture.
func newFakeScorer() *fakeScorer {
	return &fakeScorer{respond: func(_ context.Context, _ string, schema Schema) (string, error) {
		if schema.Name == EntryEvaluationSchema.Name {
			return validEntryJSON, nil
		}
		return validReportJSON, nil
	}}
}

func seedEntry(t *testing.T, db *gorm.DB, userID, content string, createdAt time.Time) model.JournalEntry {
	t.Helper()
	e := model.JournalEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}
	require.NoError(t, db.Create(&e).Error)
	return e
}

func countReports(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.WeeklyReport{}).Count(&n).Error)
	return n
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}
