package handlers

import (
	"errors"

	"estatehub/internal/core/services"
	"estatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StorageHandler handles image uploads
type StorageHandler struct {
	storageService *services.StorageService
}

// NewStorageHandler creates a new storage handler
func NewStorageHandler(storageService *services.StorageService) *StorageHandler {
	return &StorageHandler{storageService: storageService}
}

// UploadImage stores a listing image (admin)
// @Summary Upload listing image
// @Tags Storage
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param file formData file true "Image"
// @Success 201 {object} response.Response{data=services.UploadedImage}
// @Failure 400 {object} response.Response
// @Failure 413 {object} response.Response
// @Router /storage/images [post]
func (h *StorageHandler) UploadImage(c *fiber.Ctx) error {
	if h.storageService == nil {
		return response.ServiceUnavailable(c, "Image storage is not configured")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return response.BadRequest(c, "Cannot read uploaded file")
	}
	defer f.Close()

	img, err := h.storageService.UploadImage(c.UserContext(), fh.Header.Get(fiber.HeaderContentType), fh.Size, f)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedImage):
			return response.BadRequest(c, "Only jpeg, png, webp and gif images are accepted")
		case errors.Is(err, services.ErrImageTooLarge):
			return response.Error(c, fiber.StatusRequestEntityTooLarge, "Image is larger than 10 MB")
		default:
			return response.InternalServerError(c, "Failed to store image")
		}
	}
	return response.Created(c, "Image uploaded", img)
}
