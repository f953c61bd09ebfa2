package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loxigl/Rent-Pro/internal/auth"
	"github.com/loxigl/Rent-Pro/internal/middleware"
	"github.com/loxigl/Rent-Pro/internal/services"
)

type SettingsHandler struct {
	*BaseHandler
	settings *services.SettingsService
}

func NewSettingsHandler(base *BaseHandler, settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{BaseHandler: base, settings: settings}
}

func (h *SettingsHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/settings")
	{
		group.GET("", middleware.RequirePermission(auth.PermSettingsRead), h.Get)
		group.PATCH("", middleware.RequirePermission(auth.PermSettingsWrite), h.Update)
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var input services.SettingsInput
	if !h.BindAndValidate_JSON(c, &input) {
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), input, h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
