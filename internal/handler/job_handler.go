package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetJobs returns stored jobs with pagination
func (h *Handlers) GetJobs(c *gin.Context) {
	page, limit, offset := pagination(c)

	jobs, total, err := h.store.ListJobs(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch jobs",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs": jobs,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
