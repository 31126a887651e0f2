package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"job-applier-go/internal/service"
)

// StartScheduler starts the periodic application runs
func (h *Handlers) StartScheduler(c *gin.Context) {
	if err := h.scheduler.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "scheduler_error",
			Message: "Failed to start scheduler",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheduler started successfully",
		"status":  "running",
	})
}

// StopScheduler stops the periodic application runs
func (h *Handlers) StopScheduler(c *gin.Context) {
	if err := h.scheduler.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "scheduler_error",
			Message: "Failed to stop scheduler",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheduler stopped successfully",
		"status":  "stopped",
	})
}

// RunOnce starts one application run in the background. The report of the
// finished run is served by the status endpoint.
func (h *Handlers) RunOnce(c *gin.Context) {
	err := h.scheduler.Trigger()
	if errors.Is(err, service.ErrRunInProgress) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "run_in_progress",
			Message: "An application run is already in progress",
			Code:    http.StatusConflict,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "scheduler_error",
			Message: "Failed to start application run",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Application run started",
		"status":  "running",
	})
}

// GetSchedulerStatus returns the current scheduler status
func (h *Handlers) GetSchedulerStatus(c *gin.Context) {
	status := "stopped"
	if h.scheduler.IsRunning() {
		status = "running"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"run_active":  h.scheduler.IsBusy(),
		"next_run":    h.scheduler.GetNextRun(),
		"last_run":    h.scheduler.GetLastRun(),
		"last_report": newReportResponse(h.scheduler.LastReport()),
	})
}
