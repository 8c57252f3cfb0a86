package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"moodlog/internal/logger"
	"moodlog/internal/service"
)

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrNoEntriesInWindow):
		status, msg = http.StatusNotFound, "no journal entries found for this week"
	case errors.Is(err, service.ErrReportNotFound), errors.Is(err, service.ErrEntryNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrMalformedAIResponse):
		status, msg = http.StatusBadGateway, "the analysis service returned an unusable answer, please try again"
	case errors.Is(err, service.ErrAIService):
		status, msg = http.StatusServiceUnavailable, "the analysis service is unavailable, please try again later"
	case errors.Is(err, service.ErrStoreUnavailable):
		status, msg = http.StatusServiceUnavailable, "storage is temporarily unavailable, please retry"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrUserExists):
		status, msg = http.StatusConflict, err.Error()
	}
	if status >= 500 {
		logger.Error("request.failed", "path", c.FullPath(), "status", status, "err", err)
	}
	c.JSON(status, gin.H{"error": msg})
}
