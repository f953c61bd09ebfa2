package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loxigl/Rent-Pro/internal/auth"
	"github.com/loxigl/Rent-Pro/internal/middleware"
	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/internal/repositories"
	"github.com/loxigl/Rent-Pro/internal/services"
)

// EventHandler exposes the audit log.
type EventHandler struct {
	*BaseHandler
	events *services.EventService
}

func NewEventHandler(base *BaseHandler, events *services.EventService) *EventHandler {
	return &EventHandler{BaseHandler: base, events: events}
}

func (h *EventHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/events", middleware.RequirePermission(auth.PermEventsRead), h.List)
}

type listEventsQuery struct {
	EventType  string `form:"event_type" json:"event_type" validate:"omitempty,oneof=create update delete login logout"`
	EntityType string `form:"entity_type" json:"entity_type" validate:"omitempty,oneof=apartment photo booking user settings"`
	EntityID   string `form:"entity_id" json:"entity_id"`
	UserID     uint   `form:"user_id" json:"user_id"`
}

func (h *EventHandler) List(c *gin.Context) {
	var query listEventsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	page, pageSize := ParsePagination(c)

	dateFrom, err := ParseQueryDate(c, "date_from")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	dateTo, err := ParseQueryDate(c, "date_to")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	events, total, err := h.events.List(c.Request.Context(), repositories.EventFilter{
		EventType:  models.EventType(query.EventType),
		EntityType: models.EntityType(query.EntityType),
		EntityID:   query.EntityID,
		UserID:     query.UserID,
		DateFrom:   dateFrom,
		DateTo:     dateTo,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":     events,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
