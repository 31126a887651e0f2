package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"job-applier-go/internal/model"
	"job-applier-go/internal/service"
)

// Store is the read side of the persistence layer
type Store interface {
	Ping(ctx context.Context) error
	ListJobs(ctx context.Context, offset, limit int) ([]model.Job, int64, error)
	ListApplications(ctx context.Context, offset, limit int) ([]model.Application, int64, error)
	GetApplication(ctx context.Context, id uint) (*model.Application, error)
}

// Scheduler controls the periodic application runs
type Scheduler interface {
	Start() error
	Stop() error
	IsRunning() bool
	Trigger() error
	IsBusy() bool
	LastReport() *service.Report
	GetNextRun() time.Time
	GetLastRun() time.Time
}

// Handlers contains all HTTP handlers
type Handlers struct {
	store     Store
	scheduler Scheduler
	gatherer  prometheus.Gatherer
	reload    func() error
}

// NewHandlers creates new HTTP handlers. reload re-reads the settings file.
func NewHandlers(store Store, scheduler Scheduler, gatherer prometheus.Gatherer, reload func() error) *Handlers {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handlers{
		store:     store,
		scheduler: scheduler,
		gatherer:  gatherer,
		reload:    reload,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.GET("/jobs", h.GetJobs)

		api.GET("/applications", h.GetApplications)
		api.GET("/applications/:id", h.GetApplication)

		api.POST("/scheduler/start", h.StartScheduler)
		api.POST("/scheduler/stop", h.StopScheduler)
		api.POST("/scheduler/run-once", h.RunOnce)
		api.GET("/scheduler/status", h.GetSchedulerStatus)

		api.POST("/settings/reload", h.ReloadSettings)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Scheduler: map[string]string{"status": "stopped"},
	}

	if err := h.store.Ping(c.Request.Context()); err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.scheduler.IsRunning() {
		response.Scheduler["status"] = "running"
		response.Scheduler["next_run"] = h.scheduler.GetNextRun().Format(time.RFC3339)
	}
	if last := h.scheduler.GetLastRun(); !last.IsZero() {
		response.Scheduler["last_run"] = last.Format(time.RFC3339)
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// ReloadSettings re-reads the settings file
func (h *Handlers) ReloadSettings(c *gin.Context) {
	if err := h.reload(); err != nil {
		logrus.WithError(err).Error("Failed to reload settings")
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "settings_error",
			Message: err.Error(),
			Code:    http.StatusUnprocessableEntity,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Settings reloaded successfully",
	})
}

// pagination reads the page and limit query parameters
func pagination(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	return page, limit, (page - 1) * limit
}
