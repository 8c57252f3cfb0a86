package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"moodlog/internal/calendar"
	"moodlog/internal/middleware"
	"moodlog/internal/model"
	"moodlog/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	weekly       *service.WeeklyService
	historyLimit int
}

func NewReportHandler(weekly *service.WeeklyService, historyLimit int) *ReportHandler {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &ReportHandler{weekly: weekly, historyLimit: historyLimit}
}

// Weekly serves both GET ?timezone= and POST {"timezone": ...}.
func (h *ReportHandler) Weekly(c *gin.Context) {
	var req model.WeeklyReportRequest
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	} else if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	resp, err := h.weekly.Generate(c.Request.Context(), middleware.UserID(c), req.Timezone)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportHandler) List(c *gin.Context) {
	limit := h.historyLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	reports, err := h.weekly.History(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]model.ReportView, len(reports))
	for i, r := range reports {
		views[i] = model.NewReportView(r)
	}
	c.JSON(http.StatusOK, gin.H{"reports": views})
}

func (h *ReportHandler) Get(c *gin.Context) {
	start, err := calendar.ParseDate(c.Param("weekStart"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week start must be YYYY-MM-DD"})
		return
	}
	r, err := h.weekly.ByWeekStart(c.Request.Context(), middleware.UserID(c), start)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewReportView(*r))
}

func (h *ReportHandler) Export(c *gin.Context) {
	reports, err := h.weekly.History(c.Request.Context(), middleware.UserID(c), 0)
	if err != nil {
		writeError(c, err)
		return
	}
	buf, err := service.ExportReports(reports)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="weekly-reports.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
