package handlers

import (
	"net/http"
	"time"

	"foodshare-api/apperror"
	"foodshare-api/httpx"
	"foodshare-api/models"
	"foodshare-api/statemachine"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const apiVersion = "1.0.0"

// Health is the liveness probe
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Ready reports whether the store answers.
func (h *Handler) Ready(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.svc.Ping(c.Request.Context()); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, httpx.Envelope{Success: false, Message: "Database unavailable"})
			return
		}
		httpx.JSON(c, http.StatusOK, "Ready", nil)
	}
}

func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Welcome to FoodShare API",
		"version": apiVersion,
		"endpoints": gin.H{
			"auth":          "/api/auth",
			"donations":     "/api/donations",
			"claims":        "/api/claims",
			"pickups":       "/api/pickups",
			"admin":         "/api/admin",
			"notifications": "/api/notifications",
			"state_machine": "/api/state-machine",
		},
	})
}

type machineInfo[S ~string] struct {
	Transitions    []statemachine.Transition[S] `json:"transitions"`
	TerminalStates []S                          `json:"terminal_states"`
}

func describe[S ~string](m *statemachine.Machine[S], statuses []S) machineInfo[S] {
	info := machineInfo[S]{Transitions: m.Transitions(), TerminalStates: []S{}}
	for _, st := range statuses {
		if m.Terminal(st) {
			info.TerminalStates = append(info.TerminalStates, st)
		}
	}
	return info
}

// StateMachine returns every lifecycle table for documentation
func (h *Handler) StateMachine(c *gin.Context) {
	httpx.JSON(c, http.StatusOK, "FoodShare lifecycle state machines", gin.H{
		statemachine.Donations.Name(): describe(statemachine.Donations, models.DonationStatuses),
		statemachine.Claims.Name():    describe(statemachine.Claims, models.ClaimStatuses),
		statemachine.Pickups.Name():   describe(statemachine.Pickups, models.PickupStatuses),
	})
}

func (h *Handler) NotFound(c *gin.Context) {
	httpx.Error(c, apperror.NotFound("Not Found - "+c.Request.URL.Path))
}
