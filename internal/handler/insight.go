package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moodlog/internal/calendar"
	"moodlog/internal/insight"
	"moodlog/internal/middleware"
	"moodlog/internal/service"
)

type InsightHandler struct {
	journal *service.JournalService
	now     func() time.Time
}

func NewInsightHandler(journal *service.JournalService, now func() time.Time) *InsightHandler {
	if now == nil {
		now = time.Now
	}
	return &InsightHandler{journal: journal, now: now}
}

// Chart returns the emotion series at ?view=day|week|month, bucketed by the
// user's local calendar.
func (h *InsightHandler) Chart(c *gin.Context) {
	g, err := insight.ParseGranularity(c.Query("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "view must be day, week or month"})
		return
	}
	samples, err := h.journal.Samples(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	series := insight.Aggregate(samples, g, insight.Options{
		Now:      h.now(),
		Location: calendar.Location(c.Query("timezone")),
	})
	if series.Points == nil {
		series.Points = []insight.Point{}
	}
	c.JSON(http.StatusOK, series)
}

func (h *InsightHandler) Personality(c *gin.Context) {
	p, err := h.journal.Personality(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
