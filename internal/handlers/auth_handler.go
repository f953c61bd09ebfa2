package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loxigl/Rent-Pro/internal/services"
)

type AuthHandler struct {
	*BaseHandler
	auth  *services.AuthService
	users *services.UserService
}

func NewAuthHandler(base *BaseHandler, auth *services.AuthService, users *services.UserService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, auth: auth, users: users}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	group := r.Group("/auth")
	{
		group.POST("/login", h.Login)
		group.POST("/refresh", h.Refresh)
		group.POST("/logout", authMW, h.Logout)
		group.GET("/me", authMW, h.Me)
		group.POST("/password/change", authMW, h.ChangePassword)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input services.LoginInput
	if !h.BindAndValidate_JSON(c, &input) {
		return
	}

	response, err := h.auth.Login(c.Request.Context(), input, h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken, h.Actor(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.RequireUserID(c)
	if !ok {
		return
	}

	var input services.ChangePasswordInput
	if !h.BindAndValidate_JSON(c, &input) {
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), userID, input, h.Actor(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}
