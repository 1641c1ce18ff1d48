// Package handlers adapts the services to gin. Handlers bind input, call one
// service operation and render the envelope.
package handlers

import (
	"foodshare-api/middleware"
	"foodshare-api/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Services
}

func New(svc *service.Services) *Handler {
	return &Handler{svc: svc}
}

func caller(c *gin.Context) service.Caller {
	return service.Caller{ID: middleware.GetUserID(c), Role: middleware.GetRole(c)}
}
