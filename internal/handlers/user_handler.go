package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loxigl/Rent-Pro/internal/auth"
	"github.com/loxigl/Rent-Pro/internal/middleware"
	"github.com/loxigl/Rent-Pro/internal/services"
)

// UserHandler manages staff accounts (owner only).
type UserHandler struct {
	*BaseHandler
	users *services.UserService
}

func NewUserHandler(base *BaseHandler, users *services.UserService) *UserHandler {
	return &UserHandler{BaseHandler: base, users: users}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/users")
	{
		group.GET("", middleware.RequirePermission(auth.PermUsersRead), h.List)
		group.GET("/:userId", middleware.RequirePermission(auth.PermUsersRead), h.Get)
		group.POST("", middleware.RequirePermission(auth.PermUsersWrite), h.Create)
		group.PUT("/:userId", middleware.RequirePermission(auth.PermUsersWrite), h.Update)
		group.DELETE("/:userId", middleware.RequirePermission(auth.PermUsersWrite), h.Delete)
	}
}

func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := ParsePagination(c)

	list, err := h.users.List(c.Request.Context(), page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := ParseParamUint(c, "userId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Create(c *gin.Context) {
	var input services.CreateUserInput
	if !h.BindAndValidate_JSON(c, &input) {
		return
	}

	user, err := h.users.Create(c.Request.Context(), input, h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := ParseParamUint(c, "userId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var input services.UpdateUserInput
	if !h.BindAndValidate_JSON(c, &input) {
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, input, h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := ParseParamUint(c, "userId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if err := h.users.Delete(c.Request.Context(), id, h.Actor(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
