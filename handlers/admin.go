package handlers

import (
	"net/http"
	"strconv"

	"foodshare-api/apperror"
	"foodshare-api/httpx"
	"foodshare-api/models"
	"foodshare-api/service"

	"github.com/gin-gonic/gin"
)

// Stats returns the marketplace dashboard counters. Admin only.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Admin.Stats(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "", stats)
}

// Users pages through accounts, optionally filtered by role. Admin only.
func (h *Handler) Users(c *gin.Context) {
	page, err := intQuery(c, "page")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	result, err := h.svc.Admin.Users(c.Request.Context(), service.UserQuery{
		Role:  models.UserRole(c.Query("role")),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "", result)
}

// intQuery reads an optional positive integer query parameter; zero means unset.
func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.Validation("Invalid query parameter",
			apperror.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return n, nil
}
