package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"moodlog/internal/middleware"
)

type API struct {
	Auth     *AuthHandler
	Entries  *EntryHandler
	Reports  *ReportHandler
	Insights *InsightHandler
	Origins  []string
	// AccessLog receives gin's request log; nil disables it.
	AccessLog io.Writer
}

func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if a.AccessLog != nil {
		r.Use(gin.LoggerWithWriter(a.AccessLog))
	}
	origins := a.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-New-Token", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/api/login", a.Auth.Login)
	r.POST("/api/register", a.Auth.Register)

	api := r.Group("/api", middleware.JWTAuth())
	api.GET("/entries", a.Entries.List)
	api.POST("/entries", a.Entries.Create)
	api.PUT("/entries/:id", a.Entries.Update)
	api.DELETE("/entries/:id", a.Entries.Delete)

	api.GET("/reports/weekly", a.Reports.Weekly)
	api.POST("/reports/weekly", a.Reports.Weekly)
	api.GET("/reports", a.Reports.List)
	api.GET("/reports/export", a.Reports.Export)
	api.GET("/reports/week/:weekStart", a.Reports.Get)

	api.GET("/insights/chart", a.Insights.Chart)
	api.GET("/insights/personality", a.Insights.Personality)

	return r
}
