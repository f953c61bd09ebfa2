package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loxigl/Rent-Pro/internal/services"
)

// ApartmentHandler serves the public catalog.
type ApartmentHandler struct {
	*BaseHandler
	apartments *services.ApartmentService
}

func NewApartmentHandler(base *BaseHandler, apartments *services.ApartmentService) *ApartmentHandler {
	return &ApartmentHandler{BaseHandler: base, apartments: apartments}
}

func (h *ApartmentHandler) RegisterRoutes(r *gin.RouterGroup) {
	apartments := r.Group("/apartments")
	{
		apartments.GET("", h.List)
		apartments.GET("/:apartmentId", h.Get)
	}
}

type listApartmentsQuery struct {
	Sort  string `form:"sort" json:"sort" validate:"is-sort-field"`
	Order string `form:"order" json:"order" validate:"omitempty,oneof=asc desc"`
}

func (h *ApartmentHandler) List(c *gin.Context) {
	var query listApartmentsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	page, pageSize := ParsePagination(c)

	list, err := h.apartments.List(c.Request.Context(), page, pageSize, query.Sort, query.Order)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ApartmentHandler) Get(c *gin.Context) {
	id, err := ParseParamUint(c, "apartmentId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	detail, err := h.apartments.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
