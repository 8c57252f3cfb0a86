package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodlog/internal/service"
	"moodlog/internal/testfixtures"
)

const reportJSON = `{"emotion_scores":{"calm":0.5,"anger":0.1,"stress":0.25,"anxiety":0.2,"sadness":0.1,"happiness":0.75,"excitement":0.4,"hopefulness":0.6},
"themes":["work","family","rest"],
"recommendations":{"continue":"Keep walking.","explore":"Try a new recipe.","consider":"Sleep earlier."},
"highlights":["h1","h2","h3"],"lowlights":["l1","l2","l3"]}`

const entryJSON = `{"mood":{"calm":0.5,"anger":0,"stress":0.25,"anxiety":0,"sadness":0,"happiness":0.75,"excitement":0.25,"hopefulness":0.5},
"personality":{"openness":60,"conscientiousness":55,"extraversion":45,"agreeableness":70,"neuroticism":35}}`

type stubScorer struct {
	calls  atomic.Int32
	report func() (string, error)
}

func (s *stubScorer) Score(_ context.Context, _ string, schema service.Schema) (string, error) {
	if schema.Name == service.EntryEvaluationSchema.Name {
		return entryJSON, nil
	}
	s.calls.Add(1)
	if s.report != nil {
		return s.report()
	}
	return reportJSON, nil
}

type testServer struct {
	router http.Handler
	clock  *testfixtures.Clock
	scorer *stubScorer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testfixtures.OpenDB(t)
	clock := testfixtures.NewClock(time.Time{})
	scorer := &stubScorer{}

	journal := service.NewJournalService(db, scorer, clock.Now)
	weekly := service.NewWeeklyService(service.NewReportCache(db, clock.Now), service.NewSynthesizer(db, scorer), time.Sunday, clock.Now)
	api := &API{
		Auth:     NewAuthHandler(service.NewAuthService(db)),
		Entries:  NewEntryHandler(journal),
		Reports:  NewReportHandler(weekly, 10),
		Insights: NewInsightHandler(journal, clock.Now),
	}
	return &testServer{router: api.Router(), clock: clock, scorer: scorer}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": username, "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestHealthAndAuth(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/health", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/reports/weekly", "", nil).Code)

	s.register(t, "ada")
	dup := s.do(t, http.MethodPost, "/api/register", "", map[string]string{"username": "ada", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusConflict, dup.Code)

	bad := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "ada", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
	ok := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "ada", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestWeeklyReportFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada")
	const path = "/api/reports/weekly?timezone=America/New_York"

	empty := s.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, empty.Code)

	created := s.do(t, http.MethodPost, "/api/entries", token, map[string]string{"content": "Good week overall."})
	require.Equal(t, http.StatusCreated, created.Code)
	assert.Equal(t, true, decode(t, created)["scored"])

	first := s.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	fb := decode(t, first)
	assert.Equal(t, true, fb["ready"])
	assert.Equal(t, false, fb["cached"])
	assert.Equal(t, "2024-06-03", fb["week_start"])
	assert.Equal(t, "2024-06-09", fb["week_end"])
	assert.Equal(t, "America/New_York", fb["timezone"])

	second := s.do(t, http.MethodPost, "/api/reports/weekly", token, map[string]string{"timezone": "America/New_York"})
	require.Equal(t, http.StatusOK, second.Code)
	sb := decode(t, second)
	assert.Equal(t, true, sb["cached"])
	assert.Equal(t, fb["id"], sb["id"])
	assert.Equal(t, fb["themes"], sb["themes"])
	assert.Equal(t, fb["emotion_scores"], sb["emotion_scores"])
	assert.Equal(t, int32(1), s.scorer.calls.Load())

	list := s.do(t, http.MethodGet, "/api/reports", token, nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decode(t, list)["reports"], 1)

	one := s.do(t, http.MethodGet, "/api/reports/week/2024-06-03", token, nil)
	require.Equal(t, http.StatusOK, one.Code)
	assert.Equal(t, fb["id"], decode(t, one)["id"])
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/reports/week/2024-05-27", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/reports/week/last-week", token, nil).Code)

	export := s.do(t, http.MethodGet, "/api/reports/export", token, nil)
	require.Equal(t, http.StatusOK, export.Code)
	assert.Equal(t, xlsxContentType, export.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(export.Body.String(), "PK"))

	other := s.register(t, "grace")
	assert.Len(t, decode(t, s.do(t, http.MethodGet, "/api/reports", other, nil))["reports"], 0)
}

func TestWeeklyReportNotReady(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada")
	s.clock.Set(time.Date(2024, 6, 11, 13, 0, 0, 0, time.UTC))

	w := s.do(t, http.MethodGet, "/api/reports/weekly?timezone=America/New_York", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["ready"])
	assert.Equal(t, float64(5), body["days_until_ready"])
	assert.Equal(t, "2024-06-09", body["week_end"])
	assert.NotContains(t, body, "cached")
	assert.Zero(t, s.scorer.calls.Load())
}

func TestWeeklyReportCollaboratorFailures(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada")
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/entries", token, map[string]string{"content": "entry"}).Code)

	s.scorer.report = func() (string, error) { return "", service.ErrAIService }
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodGet, "/api/reports/weekly", token, nil).Code)

	s.scorer.report = func() (string, error) { return "Sorry, I cannot help with that.", nil }
	assert.Equal(t, http.StatusBadGateway, s.do(t, http.MethodGet, "/api/reports/weekly", token, nil).Code)

	s.scorer.report = nil
	w := s.do(t, http.MethodGet, "/api/reports/weekly", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["cached"])
}

func TestEntriesCRUDIsScopedToUser(t *testing.T) {
	s := newTestServer(t)
	ada := s.register(t, "ada")
	grace := s.register(t, "grace")

	created := s.do(t, http.MethodPost, "/api/entries", ada, map[string]string{"content": "mine"})
	require.Equal(t, http.StatusCreated, created.Code)
	id := decode(t, created)["id"].(string)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/entries", ada, map[string]string{"content": ""}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, "/api/entries/"+id, grace, map[string]string{"content": "hijack"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/entries/"+id, grace, nil).Code)

	updated := s.do(t, http.MethodPut, "/api/entries/"+id, ada, map[string]string{"content": "mine, edited"})
	require.Equal(t, http.StatusOK, updated.Code)
	assert.Equal(t, "mine, edited", decode(t, updated)["content"])

	list := s.do(t, http.MethodGet, "/api/entries", ada, nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decode(t, list)["entries"], 1)
	assert.Len(t, decode(t, s.do(t, http.MethodGet, "/api/entries", grace, nil))["entries"], 0)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/entries?from=yesterday", ada, nil).Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/entries/"+id, ada, nil).Code)
}

func TestInsights(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ada")

	empty := decode(t, s.do(t, http.MethodGet, "/api/insights/chart?view=week", token, nil))
	assert.Equal(t, float64(2), empty["needs_more"])
	assert.Equal(t, []any{}, empty["points"])

	neutral := decode(t, s.do(t, http.MethodGet, "/api/insights/personality", token, nil))
	assert.Equal(t, float64(50), neutral["openness"])

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/entries", token, map[string]string{"content": "one"}).Code)
	s.clock.Advance(-24 * time.Hour)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/entries", token, map[string]string{"content": "two"}).Code)

	chart := s.do(t, http.MethodGet, "/api/insights/chart?view=week&timezone=America/New_York", token, nil)
	require.Equal(t, http.StatusOK, chart.Code)
	body := decode(t, chart)
	assert.Equal(t, "week", body["requested"])
	assert.Equal(t, "day", body["effective"])
	assert.Len(t, body["points"], 2)
	assert.NotContains(t, body, "hint")

	p := decode(t, s.do(t, http.MethodGet, "/api/insights/personality", token, nil))
	assert.Equal(t, float64(60), p["openness"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/insights/chart?view=year", token, nil).Code)
}
