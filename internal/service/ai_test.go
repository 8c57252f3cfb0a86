package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return b
}

func TestAIServiceScoreSendsStructuredRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/llm-proxy/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("moi-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write(completion("```json\n" + validReportJSON + "\n```"))
	}))
	defer srv.Close()

	ai := NewAIService(srv.URL, "secret", AIOptions{Model: "test-model", Timeout: time.Second})
	out, err := ai.Score(context.Background(), "entries", WeeklyReportSchema)
	require.NoError(t, err)

	p, err := ParseReportPayload(out)
	require.NoError(t, err)
	assert.Equal(t, 0.75, p.EmotionScores.Happiness)

	assert.Equal(t, "test-model", got["model"])
	rf := got["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, "weekly_report", js["name"])
	assert.NotNil(t, js["schema"])
}

func TestAIServiceRetriesTransientFailureOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream busy", http.StatusServiceUnavailable)
			return
		}
		w.Write(completion(validReportJSON))
	}))
	defer srv.Close()

	ai := NewAIService(srv.URL, "k", AIOptions{Timeout: time.Second, Retries: 1, Backoff: time.Millisecond})
	_, err := ai.Score(context.Background(), "entries", WeeklyReportSchema)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAIServiceGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ai := NewAIService(srv.URL, "k", AIOptions{Timeout: time.Second, Retries: 1, Backoff: time.Millisecond})
	_, err := ai.Score(context.Background(), "entries", WeeklyReportSchema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAIService))
	assert.Equal(t, int32(2), calls.Load())
}

func TestAIServiceDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	ai := NewAIService(srv.URL, "k", AIOptions{Timeout: time.Second, Retries: 3, Backoff: time.Millisecond})
	_, err := ai.Score(context.Background(), "entries", WeeklyReportSchema)
	assert.ErrorIs(t, err, ErrAIService)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAIServiceTimesOutEachAttempt(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ai := NewAIService(srv.URL, "k", AIOptions{Timeout: 50 * time.Millisecond, Retries: 1, Backoff: time.Millisecond})
	start := time.Now()
	_, err := ai.Score(context.Background(), "entries", WeeklyReportSchema)
	assert.ErrorIs(t, err, ErrAIService)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAIServiceEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	ai := NewAIService(srv.URL, "k", AIOptions{Timeout: time.Second, Retries: 1, Backoff: time.Millisecond})
	_, err := ai.Score(context.Background(), "entries", WeeklyReportSchema)
	assert.ErrorIs(t, err, ErrAIService)
	assert.ErrorIs(t, err, errBadEnvelope)
}
