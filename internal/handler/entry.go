package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moodlog/internal/middleware"
	"moodlog/internal/model"
	"moodlog/internal/service"
)

type EntryHandler struct{ journal *service.JournalService }

func NewEntryHandler(journal *service.JournalService) *EntryHandler {
	return &EntryHandler{journal: journal}
}

func (h *EntryHandler) Create(c *gin.Context) {
	var req model.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	e, err := h.journal.Create(c.Request.Context(), middleware.UserID(c), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.NewEntryView(*e))
}

// List accepts optional RFC 3339 from/to bounds.
func (h *EntryHandler) List(c *gin.Context) {
	var from, to time.Time
	var err error
	if s := c.Query("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
	}

	entries, err := h.journal.List(c.Request.Context(), middleware.UserID(c), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]model.EntryView, len(entries))
	for i, e := range entries {
		views[i] = model.NewEntryView(e)
	}
	c.JSON(http.StatusOK, gin.H{"entries": views})
}

func (h *EntryHandler) Update(c *gin.Context) {
	var req model.EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	e, err := h.journal.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewEntryView(*e))
}

func (h *EntryHandler) Delete(c *gin.Context) {
	if err := h.journal.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
