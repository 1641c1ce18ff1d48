package handlers

import (
	"net/http"

	"foodshare-api/httpx"
	"foodshare-api/middleware"
	"foodshare-api/service"

	"github.com/gin-gonic/gin"
)

// Register creates a new user account
func (h *Handler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !httpx.Bind(c, &req) {
		return
	}
	session, err := h.svc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusCreated, "User registered successfully", session)
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req service.LoginInput
	if !httpx.Bind(c, &req) {
		return
	}
	session, err := h.svc.Auth.Login(c.Request.Context(), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "Login successful", session)
}

// Me returns the authenticated user's profile
func (h *Handler) Me(c *gin.Context) {
	if user := middleware.GetUser(c); user != nil {
		httpx.JSON(c, http.StatusOK, "", user)
		return
	}
	user, err := h.svc.Auth.Profile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "", user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req service.ProfileInput
	if !httpx.Bind(c, &req) {
		return
	}
	user, err := h.svc.Auth.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, "Profile updated successfully", user)
}
