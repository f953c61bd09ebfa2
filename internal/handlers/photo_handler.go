package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loxigl/Rent-Pro/internal/auth"
	"github.com/loxigl/Rent-Pro/internal/middleware"
	"github.com/loxigl/Rent-Pro/internal/services"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

// PhotoHandler manages apartment photos: multipart upload, ordering,
// cover selection and rebuilds.
type PhotoHandler struct {
	*BaseHandler
	photos   *services.PhotoService
	maxBytes int64
}

func NewPhotoHandler(base *BaseHandler, photos *services.PhotoService, maxBytes int64) *PhotoHandler {
	return &PhotoHandler{BaseHandler: base, photos: photos, maxBytes: maxBytes}
}

func (h *PhotoHandler) RegisterRoutes(r *gin.RouterGroup) {
	write := middleware.RequirePermission(auth.PermPhotosWrite)

	group := r.Group("/apartments/:apartmentId/photos")
	{
		group.POST("", write, h.Upload)
		group.PUT("/order", write, h.Reorder)
		group.POST("/reprocess", write, h.Reprocess)
	}
	photos := r.Group("/photos")
	{
		photos.DELETE("/:photoId", write, h.Delete)
		photos.PUT("/:photoId/cover", write, h.SetCover)
	}
}

func (h *PhotoHandler) Upload(c *gin.Context) {
	apartmentID, err := ParseParamUint(c, "apartmentId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Missing 'file' form field"))
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		h.HandleServiceError(c, apperrors.ErrFileTooLarge)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	if int64(len(data)) > h.maxBytes {
		h.HandleServiceError(c, apperrors.ErrFileTooLarge)
		return
	}

	declaredType := header.Header.Get("Content-Type")
	uploaded, err := h.photos.Upload(c.Request.Context(), apartmentID, declaredType, data, h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, uploaded)
}

type reorderRequest struct {
	PhotoIDs []string `json:"photo_ids" validate:"required,min=1,dive,uuid"`
}

func (h *PhotoHandler) Reorder(c *gin.Context) {
	apartmentID, err := ParseParamUint(c, "apartmentId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req reorderRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.photos.Reorder(c.Request.Context(), apartmentID, req.PhotoIDs, h.Actor(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order updated"})
}

type reprocessRequest struct {
	MaxImages int `json:"max_images" validate:"omitempty,min=1,max=500"`
}

func (h *PhotoHandler) Reprocess(c *gin.Context) {
	apartmentID, err := ParseParamUint(c, "apartmentId")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var req reprocessRequest
	if c.Request.ContentLength > 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	taskID, err := h.photos.RequestBulkReprocess(c.Request.Context(), apartmentID, req.MaxImages, h.Actor(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

func (h *PhotoHandler) Delete(c *gin.Context) {
	photoID := c.Param("photoId")
	if photoID == "" {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Missing required path parameter: photoId"))
		return
	}

	if err := h.photos.Delete(c.Request.Context(), photoID, h.Actor(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo deleted"})
}

func (h *PhotoHandler) SetCover(c *gin.Context) {
	photoID := c.Param("photoId")
	if photoID == "" {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Missing required path parameter: photoId"))
		return
	}

	var req struct {
		ApartmentID uint `json:"apartment_id" validate:"required"`
	}
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.photos.SetCover(c.Request.Context(), req.ApartmentID, photoID, h.Actor(c)); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cover updated"})
}
