package handlers

import (
	"net/http"

	"foodshare-api/httpx"
	"foodshare-api/middleware"
	"foodshare-api/service"

	"github.com/gin-gonic/gin"
)

// AvailablePickups lists scheduled pickups nobody has accepted yet
func (h *Handler) AvailablePickups(c *gin.Context) {
	pickups, err := h.svc.Pickups.Available(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.List(c, http.StatusOK, pickups, len(pickups))
}

func (h *Handler) MyPickups(c *gin.Context) {
	pickups, err := h.svc.Pickups.Mine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.List(c, http.StatusOK, pickups, len(pickups))
}

func (h *Handler) AcceptPickup(c *gin.Context) {
	pickup, err := h.svc.Pickups.Accept(c.Request.Context(), c.Param("id"), caller(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "Pickup accepted successfully", pickup)
}

// UpdatePickupStatus moves an accepted pickup to picked_up and then completed
func (h *Handler) UpdatePickupStatus(c *gin.Context) {
	var req service.PickupStatusInput
	if !httpx.Bind(c, &req) {
		return
	}
	pickup, err := h.svc.Pickups.UpdateStatus(c.Request.Context(), c.Param("id"), req, caller(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "Pickup status updated to "+string(pickup.Status), pickup)
}
