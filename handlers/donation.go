package handlers

import (
	"net/http"

	"foodshare-api/httpx"
	"foodshare-api/middleware"
	"foodshare-api/models"
	"foodshare-api/service"

	"github.com/gin-gonic/gin"
)

// ListDonations filters by status, food_type and donor_id. The status filter
// matches the effective status, so status=expired finds lapsed listings.
func (h *Handler) ListDonations(c *gin.Context) {
	donations, err := h.svc.Donations.List(c.Request.Context(), service.DonationQuery{
		Status:   models.DonationStatus(c.Query("status")),
		FoodType: c.Query("food_type"),
		DonorID:  c.Query("donor_id"),
	})
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.List(c, http.StatusOK, donations, len(donations))
}

func (h *Handler) AvailableDonations(c *gin.Context) {
	donations, err := h.svc.Donations.Available(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.List(c, http.StatusOK, donations, len(donations))
}

func (h *Handler) MyDonations(c *gin.Context) {
	donations, err := h.svc.Donations.ListByDonor(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.List(c, http.StatusOK, donations, len(donations))
}

func (h *Handler) CreateDonation(c *gin.Context) {
	var req service.DonationInput
	if !httpx.Bind(c, &req) {
		return
	}
	donation, err := h.svc.Donations.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusCreated, "Donation created successfully", donation)
}

func (h *Handler) GetDonation(c *gin.Context) {
	donation, err := h.svc.Donations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "", donation)
}

func (h *Handler) UpdateDonation(c *gin.Context) {
	var req service.DonationUpdate
	if !httpx.Bind(c, &req) {
		return
	}
	donation, err := h.svc.Donations.Update(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "Donation updated successfully", donation)
}

func (h *Handler) DeleteDonation(c *gin.Context) {
	if err := h.svc.Donations.Delete(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "Donation deleted successfully", nil)
}
