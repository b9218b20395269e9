package handlers

import (
	"errors"

	"estatehub/internal/core/domain"
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles cart entry endpoints
type CartHandler struct {
	cartService *services.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// AddToCartRequest represents add-to-cart body
type AddToCartRequest struct {
	ListingID string `json:"listing_id"`
}

// List returns the caller's cart entries
// @Summary List cart entries
// @Tags Cart
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]domain.CartEntry}
// @Router /cart [get]
func (h *CartHandler) List(c *fiber.Ctx) error {
	entries, err := h.cartService.List(c.UserContext(), actorFrom(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to get cart")
	}
	return response.Success(c, "Cart retrieved successfully", entries)
}

// Add inserts a cart entry
// @Summary Add to cart
// @Tags Cart
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param body body AddToCartRequest true "Listing"
// @Success 201 {object} response.Response{data=domain.CartEntry}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /cart [post]
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil || req.ListingID == "" {
		return response.BadRequest(c, "listing_id is required")
	}

	entry, err := h.cartService.Add(c.UserContext(), actorFrom(c), req.ListingID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPrivilegedCart):
			return response.ErrorWithData(c, fiber.StatusForbidden, "privileged_cart", "Admin accounts cannot use the cart", nil)
		case errors.Is(err, services.ErrListingNotFound):
			return response.NotFound(c, "Listing not found")
		case errors.Is(err, domain.ErrAlreadyInCart):
			return response.ErrorWithData(c, fiber.StatusConflict, "already_in_cart", "Listing is already in your cart", nil)
		default:
			return response.InternalServerError(c, "Failed to add to cart")
		}
	}
	return response.Created(c, "Added to cart", entry)
}

// Remove deletes one cart entry
// @Summary Remove from cart
// @Tags Cart
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param listingID path string true "Listing ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /cart/{listingID} [delete]
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	if err := h.cartService.Remove(c.UserContext(), actorFrom(c), c.Params("listingID")); err != nil {
		if errors.Is(err, domain.ErrCartEntryAbsent) {
			return response.NotFound(c, "Listing is not in your cart")
		}
		return response.InternalServerError(c, "Failed to remove from cart")
	}
	return response.Success(c, "Removed from cart", nil)
}

// Clear deletes all the caller's cart entries
// @Summary Clear cart
// @Tags Cart
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /cart [delete]
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	removed, err := h.cartService.Clear(c.UserContext(), actorFrom(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to clear cart")
	}
	return response.Success(c, "Cart cleared", fiber.Map{"removed": removed})
}
