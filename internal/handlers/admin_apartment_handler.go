package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loxigl/Rent-Pro/internal/auth"
	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/middleware"
	"github.com/loxigl/Rent-Pro/internal/services"
)

// AdminApartmentHandler manages the catalog from the admin side.
type AdminApartmentHandler struct {
	*BaseHandler
	apartments *services.ApartmentService
	photos     *services.PhotoService
}

func NewAdminApartmentHandler(base *BaseHandler, apartments *services.ApartmentService, photos *services.PhotoService) *AdminApartmentHandler {
	return &AdminApartmentHandler{BaseHandler: base, apartments: apartments, photos: photos}
}

func (h *AdminApartmentHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/apartments")
	{
		group.GET("", middleware.RequirePermission(auth.PermApartmentsRead), h.List)
		group.GET("/:apartmentId", middleware.RequirePermission(auth.PermApartmentsRead), h.Get)
		group.POST("", middleware.RequirePermission(auth.PermApartmentsWrite), h.Create)
		group.PUT("/:apartmentId", middleware.RequirePermission(auth.PermApartmentsWrite), h.Update)
		group.DELETE("/:apartmentId", middleware.RequirePermission(auth.PermApartmentsWrite), h.Delete)
	}
}

func (h *AdminApartmentHandler) List(c *gin.Context) {
	var query listApartmentsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	page, pageSize := ParsePagination(c)

	list, err := h.apartments.ListAdmin(c.Request.Context(), page, pageSize, query.Sort, query.Order)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AdminApartmentHandler) Get(c *gin.Context) {
	id, err := ParseParamUint(c, "apartmentId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	detail, err := h.apartments.GetAdmin(c.Request.Context(), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *AdminApartmentHandler) Create(c *gin.Context) {
	var input services.ApartmentInput
	if !h.BindAndValidate_JSON(c, &input) {
		return
	}

	detail, err := h.apartments.Create(c.Request.Context(), input, h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (h *AdminApartmentHandler) Update(c *gin.Context) {
	id, err := ParseParamUint(c, "apartmentId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var input services.ApartmentInput
	if !h.BindAndValidate_JSON(c, &input) {
		return
	}

	detail, err := h.apartments.Update(c.Request.Context(), id, input, h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *AdminApartmentHandler) Delete(c *gin.Context) {
	id, err := ParseParamUint(c, "apartmentId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if err := h.apartments.Delete(c.Request.Context(), id, h.Actor(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	// The rows cascade with the apartment; stored objects need their own sweep.
	if err := h.photos.DeleteApartmentPhotos(c.Request.Context(), id); err != nil {
		logger.CtxWarn(c.Request.Context(), "apartment object cleanup incomplete", "apartment_id", id, "error", err.Error())
	}
	c.JSON(http.StatusOK, gin.H{"message": "Apartment deleted"})
}
