package handlers

import (
	"errors"
	"strconv"

	"estatehub/internal/core/domain"
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ListingHandler handles listing endpoints
type ListingHandler struct {
	listingService *services.ListingService
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listingService *services.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// BatchRequest asks for several listings at once
type BatchRequest struct {
	IDs []string `json:"ids"`
}

// List searches listings
// @Summary List listings
// @Tags Listings
// @Produce json
// @Security ApiKeyAuth
// @Param category query string false "sale or rent"
// @Param location query string false "Location substring"
// @Param q query string false "Free-text search"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param min_beds query int false "Minimum bedrooms"
// @Param popular query bool false "Popular only"
// @Param new query bool false "New only"
// @Param owner_id query string false "Owner"
// @Param sort query string false "newest, price_asc or price_desc"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response{data=services.ListListingsOutput}
// @Failure 400 {object} response.Response
// @Router /listings [get]
func (h *ListingHandler) List(c *fiber.Ctx) error {
	filter, err := parseListingFilter(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	out, err := h.listingService.List(c.UserContext(), filter)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCategory) {
			return response.BadRequest(c, "Category must be sale or rent")
		}
		return response.InternalServerError(c, "Failed to list listings")
	}
	return response.Success(c, "Listings retrieved successfully", out)
}

// GetByID returns one listing
// @Summary Get listing
// @Tags Listings
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Response{data=domain.Listing}
// @Failure 404 {object} response.Response
// @Router /listings/{id} [get]
func (h *ListingHandler) GetByID(c *fiber.Ctx) error {
	listing, err := h.listingService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrListingNotFound) {
			return response.NotFound(c, "Listing not found")
		}
		return response.InternalServerError(c, "Failed to get listing")
	}
	return response.Success(c, "Listing retrieved successfully", listing)
}

// Batch returns the listings matching a set of ids; unknown ids are absent
// @Summary Batch get listings
// @Tags Listings
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body BatchRequest true "Listing ids"
// @Success 200 {object} response.Response{data=[]domain.Listing}
// @Failure 400 {object} response.Response
// @Router /listings/batch [post]
func (h *ListingHandler) Batch(c *fiber.Ctx) error {
	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	listings, err := h.listingService.GetByIDs(c.UserContext(), req.IDs)
	if err != nil {
		if errors.Is(err, services.ErrTooManyIDs) {
			return response.BadRequest(c, "At most 100 ids per request")
		}
		return response.InternalServerError(c, "Failed to get listings")
	}
	return response.Success(c, "Listings retrieved successfully", listings)
}

// Create creates a listing (admin)
// @Summary Create listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param body body services.ListingInput true "Listing"
// @Success 201 {object} response.Response{data=domain.Listing}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /listings [post]
func (h *ListingHandler) Create(c *fiber.Ctx) error {
	var input services.ListingInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	listing, err := h.listingService.Create(c.UserContext(), actorFrom(c), &input)
	if err != nil {
		return h.writeError(c, err, "Failed to create listing")
	}
	return response.Created(c, "Listing created successfully", listing)
}

// Update replaces a listing (owner or admin)
// @Summary Update listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param body body services.ListingInput true "Listing"
// @Success 200 {object} response.Response{data=domain.Listing}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /listings/{id} [put]
func (h *ListingHandler) Update(c *fiber.Ctx) error {
	var input services.ListingInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	listing, err := h.listingService.Update(c.UserContext(), actorFrom(c), c.Params("id"), &input)
	if err != nil {
		return h.writeError(c, err, "Failed to update listing")
	}
	return response.Success(c, "Listing updated successfully", listing)
}

// Delete removes a listing with its cart entries and favorites (owner or admin)
// @Summary Delete listing
// @Tags Listings
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /listings/{id} [delete]
func (h *ListingHandler) Delete(c *fiber.Ctx) error {
	if err := h.listingService.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return h.writeError(c, err, "Failed to delete listing")
	}
	return response.Success(c, "Listing deleted successfully", nil)
}

func (h *ListingHandler) writeError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrListingNotFound):
		return response.NotFound(c, "Listing not found")
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "Only admins can create listings")
	case errors.Is(err, services.ErrNotOwner):
		return response.Forbidden(c, "Only the owner or an admin can change this listing")
	case errors.Is(err, domain.ErrInvalidCategory):
		return response.BadRequest(c, "Category must be sale or rent")
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, fallback)
	}
}

func parseListingFilter(c *fiber.Ctx) (domain.ListingFilter, error) {
	f := domain.ListingFilter{
		Category: domain.Category(c.Query("category")),
		Location: c.Query("location"),
		Search:   c.Query("q"),
		OwnerID:  c.Query("owner_id"),
		Sort:     domain.ListingSort(c.Query("sort")),
		MinBeds:  c.QueryInt("min_beds"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 0),
	}

	var err error
	if f.MinPrice, err = floatQuery(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = floatQuery(c, "max_price"); err != nil {
		return f, err
	}
	if f.Popular, err = boolQuery(c, "popular"); err != nil {
		return f, err
	}
	if f.New, err = boolQuery(c, "new"); err != nil {
		return f, err
	}
	return f, nil
}

func floatQuery(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New(key + " must be a number")
	}
	return &v, nil
}

func boolQuery(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New(key + " must be true or false")
	}
	return &v, nil
}
