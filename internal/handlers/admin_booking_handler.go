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

type AdminBookingHandler struct {
	*BaseHandler
	bookings *services.BookingService
}

func NewAdminBookingHandler(base *BaseHandler, bookings *services.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{BaseHandler: base, bookings: bookings}
}

func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/bookings")
	{
		group.GET("", middleware.RequirePermission(auth.PermBookingsRead), h.List)
		group.GET("/:bookingId", middleware.RequirePermission(auth.PermBookingsRead), h.Get)
		group.PUT("/:bookingId/status", middleware.RequirePermission(auth.PermBookingsWrite), h.UpdateStatus)
	}
}

type listBookingsQuery struct {
	ApartmentID uint   `form:"apartment_id" json:"apartment_id"`
	Status      string `form:"status" json:"status" validate:"is-booking-status"`
}

func (h *AdminBookingHandler) List(c *gin.Context) {
	var query listBookingsQuery
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

	list, err := h.bookings.List(c.Request.Context(), repositories.BookingFilter{
		ApartmentID: query.ApartmentID,
		Status:      models.BookingStatus(query.Status),
		DateFrom:    dateFrom,
		DateTo:      dateTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AdminBookingHandler) Get(c *gin.Context) {
	id, err := ParseParamUint(c, "bookingId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

type updateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,is-booking-status"`
}

func (h *AdminBookingHandler) UpdateStatus(c *gin.Context) {
	id, err := ParseParamUint(c, "bookingId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req updateBookingStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	booking, err := h.bookings.UpdateStatus(c.Request.Context(), id, models.BookingStatus(req.Status), h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}
