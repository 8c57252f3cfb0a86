package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodlog/internal/testfixtures"
)

func TestJournalCreateScoresEntry(t *testing.T) {
	db := testfixtures.OpenDB(t)
	clock := testfixtures.NewClock(time.Time{})
	scorer := newFakeScorer()
	svc := NewJournalService(db, scorer, clock.Now)

	e, err := svc.Create(context.Background(), "u1", "Stressful deadline, but I managed.")
	require.NoError(t, err)
	assert.True(t, e.Scored())
	assert.Equal(t, 0.75, e.EmotionScores.Data().Stress)
	assert.Equal(t, 70.0, e.PersonalityScores.Data().Openness)
	assert.Equal(t, []string{"entry_evaluation"}, scorer.schemas)

	stored, err := svc.Get(context.Background(), "u1", e.ID)
	require.NoError(t, err)
	assert.True(t, stored.Scored())
	assert.True(t, clock.Now().Equal(stored.CreatedAt))
}

func TestJournalCreateKeepsTextWhenScoringFails(t *testing.T) {
	db := testfixtures.OpenDB(t)
	failing := &fakeScorer{respond: func(context.Context, string, Schema) (string, error) {
		return "", errors.New("timeout")
	}}
	svc := NewJournalService(db, failing, nil)

	e, err := svc.Create(context.Background(), "u1", "Quiet day.")
	require.NoError(t, err)
	assert.False(t, e.Scored())

	entries, err := svc.List(context.Background(), "u1", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Quiet day.", entries[0].Content)
}

func TestJournalUpdateRescoresAndKeepsCreatedAt(t *testing.T) {
	db := testfixtures.OpenDB(t)
	clock := testfixtures.NewClock(time.Time{})
	scorer := newFakeScorer()
	svc := NewJournalService(db, scorer, clock.Now)

	e, err := svc.Create(context.Background(), "u1", "first draft")
	require.NoError(t, err)
	created := e.CreatedAt

	clock.Advance(48 * time.Hour)
	updated, err := svc.Update(context.Background(), "u1", e.ID, "second draft")
	require.NoError(t, err)
	assert.Equal(t, "second draft", updated.Content)
	assert.Equal(t, 2, scorer.calls())

	stored, err := svc.Get(context.Background(), "u1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "second draft", stored.Content)
	assert.True(t, created.Equal(stored.CreatedAt))
	assert.True(t, stored.Scored())

	_, err = svc.Update(context.Background(), "u2", e.ID, "not mine")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestJournalUpdateClearsScoresWhenRescoringFails(t *testing.T) {
	db := testfixtures.OpenDB(t)
	scorer := newFakeScorer()
	svc := NewJournalService(db, scorer, nil)

	e, err := svc.Create(context.Background(), "u1", "scored")
	require.NoError(t, err)
	require.True(t, e.Scored())

	scorer.respond = func(context.Context, string, Schema) (string, error) { return "{}", nil }
	_, err = svc.Update(context.Background(), "u1", e.ID, "rewritten")
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), "u1", e.ID)
	require.NoError(t, err)
	assert.False(t, stored.Scored())
}

func TestJournalDeleteIsScopedToOwner(t *testing.T) {
	db := testfixtures.OpenDB(t)
	svc := NewJournalService(db, nil, nil)

	e, err := svc.Create(context.Background(), "u1", "private")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), "u2", e.ID), ErrEntryNotFound)
	require.NoError(t, svc.Delete(context.Background(), "u1", e.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), "u1", e.ID), ErrEntryNotFound)
}

func TestJournalListRange(t *testing.T) {
	db := testfixtures.OpenDB(t)
	svc := NewJournalService(db, nil, nil)
	seedEntry(t, db, "u1", "may", mustTime(t, "2024-05-31T12:00:00Z"))
	seedEntry(t, db, "u1", "june a", mustTime(t, "2024-06-01T00:00:00Z"))
	seedEntry(t, db, "u1", "june b", mustTime(t, "2024-06-15T08:00:00Z"))

	entries, err := svc.List(context.Background(), "u1", mustTime(t, "2024-06-01T00:00:00Z"), mustTime(t, "2024-07-01T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "june b", entries[0].Content)
	assert.Equal(t, "june a", entries[1].Content)
}

func TestJournalSamplesAndPersonalityUseScoredEntriesOnly(t *testing.T) {
	db := testfixtures.OpenDB(t)
	svc := NewJournalService(db, newFakeScorer(), nil)

	neutral, err := svc.Personality(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, neutral.Openness)

	_, err = svc.Create(context.Background(), "u1", "scored one")
	require.NoError(t, err)
	seedEntry(t, db, "u1", "never scored", time.Now())

	samples, err := svc.Samples(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 0.75, samples[0].Emotions.Stress)

	p, err := svc.Personality(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 70.0, p.Openness)
	assert.Equal(t, 30.0, p.Neuroticism)
}
