package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetApplications returns stored applications with pagination
func (h *Handlers) GetApplications(c *gin.Context) {
	page, limit, offset := pagination(c)

	apps, total, err := h.store.ListApplications(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch applications",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetApplication returns a specific application
func (h *Handlers) GetApplication(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid application ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	app, err := h.store.GetApplication(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch application",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	if app == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Application not found",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, app)
}
