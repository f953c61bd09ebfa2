package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loxigl/Rent-Pro/internal/services"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

// BookingHandler serves public booking requests.
type BookingHandler struct {
	*BaseHandler
	bookings *services.BookingService
}

func NewBookingHandler(base *BaseHandler, bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{BaseHandler: base, bookings: bookings}
}

func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/bookings", h.Create)
	r.GET("/apartments/:apartmentId/availability", h.Availability)
}

func (h *BookingHandler) Create(c *gin.Context) {
	var input services.BookingInput
	if !h.BindAndValidate_JSON(c, &input) {
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), input, h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) Availability(c *gin.Context) {
	apartmentID, err := ParseParamUint(c, "apartmentId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	checkIn := c.Query("check_in")
	checkOut := c.Query("check_out")
	if checkIn == "" || checkOut == "" {
		h.HandleServiceError(c, apperrors.NewBadRequestError("check_in and check_out query parameters are required"))
		return
	}

	available, err := h.bookings.Availability(c.Request.Context(), apartmentID, checkIn, checkOut)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}
