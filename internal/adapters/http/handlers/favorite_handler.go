package handlers

import (
	"errors"

	"estatehub/internal/core/domain"
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// FavoriteHandler handles favorites endpoints
type FavoriteHandler struct {
	favoriteService *services.FavoriteService
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(favoriteService *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

// List returns the caller's favorites
// @Summary List favorites
// @Tags Favorites
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]domain.Favorite}
// @Router /favorites [get]
func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	favs, err := h.favoriteService.List(c.UserContext(), userIDFrom(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to get favorites")
	}
	return response.Success(c, "Favorites retrieved successfully", favs)
}

// Add bookmarks a listing
// @Summary Add favorite
// @Tags Favorites
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param body body AddToCartRequest true "Listing"
// @Success 201 {object} response.Response{data=domain.Favorite}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /favorites [post]
func (h *FavoriteHandler) Add(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil || req.ListingID == "" {
		return response.BadRequest(c, "listing_id is required")
	}

	fav, err := h.favoriteService.Add(c.UserContext(), userIDFrom(c), req.ListingID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrListingNotFound):
			return response.NotFound(c, "Listing not found")
		case errors.Is(err, services.ErrAlreadyFavorite):
			return response.Conflict(c, "Listing is already a favorite")
		default:
			return response.InternalServerError(c, "Failed to add favorite")
		}
	}
	return response.Created(c, "Added to favorites", fav)
}

// Remove drops a bookmark
// @Summary Remove favorite
// @Tags Favorites
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param listingID path string true "Listing ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /favorites/{listingID} [delete]
func (h *FavoriteHandler) Remove(c *fiber.Ctx) error {
	if err := h.favoriteService.Remove(c.UserContext(), userIDFrom(c), c.Params("listingID")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Favorite not found")
		}
		return response.InternalServerError(c, "Failed to remove favorite")
	}
	return response.Success(c, "Removed from favorites", nil)
}
