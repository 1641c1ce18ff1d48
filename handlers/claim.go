package handlers

import (
	"net/http"

	"foodshare-api/httpx"
	"foodshare-api/middleware"
	"foodshare-api/service"

	"github.com/gin-gonic/gin"
)

// Claim reserves an available donation for the calling NGO and schedules its pickup
func (h *Handler) Claim(c *gin.Context) {
	claim, err := h.svc.Claims.Claim(c.Request.Context(), c.Param("donationId"), middleware.GetUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusCreated, "Donation claimed successfully", claim)
}

func (h *Handler) MyClaims(c *gin.Context) {
	claims, err := h.svc.Claims.ListByNGO(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.List(c, http.StatusOK, claims, len(claims))
}

func (h *Handler) GetClaim(c *gin.Context) {
	claim, err := h.svc.Claims.Get(c.Request.Context(), c.Param("id"), caller(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "", claim)
}

// UpdateClaimStatus completes or cancels a pending claim
func (h *Handler) UpdateClaimStatus(c *gin.Context) {
	var req service.ClaimStatusInput
	if !httpx.Bind(c, &req) {
		return
	}
	claim, err := h.svc.Claims.UpdateStatus(c.Request.Context(), c.Param("id"), req, caller(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "Claim status updated to "+string(claim.Status), claim)
}
