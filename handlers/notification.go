package handlers

import (
	"net/http"

	"foodshare-api/httpx"
	"foodshare-api/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Notifications(c *gin.Context) {
	list, err := h.svc.Notifications.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "", list)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	n, err := h.svc.Notifications.MarkRead(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "Notification marked as read", n)
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	updated, err := h.svc.Notifications.MarkAllRead(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}
