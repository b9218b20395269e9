package handlers

import (
	"errors"

	"estatehub/internal/core/payment"
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler serves checkout estimates
type PaymentHandler struct {
	listingService *services.ListingService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(listingService *services.ListingService) *PaymentHandler {
	return &PaymentHandler{listingService: listingService}
}

// EstimateRequest represents estimate body
type EstimateRequest struct {
	ListingIDs       []string `json:"listing_ids"`
	InstalmentMonths int      `json:"instalment_months"`
}

// Estimate computes the breakdown for a set of listings
// @Summary Payment estimate
// @Description Rental and sale breakdowns for the given listings. Nothing is charged.
// @Tags Payment
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param body body EstimateRequest true "Listings and instalment months"
// @Success 200 {object} response.Response{data=payment.Breakdown}
// @Failure 400 {object} response.Response
// @Router /payment/estimate [post]
func (h *PaymentHandler) Estimate(c *fiber.Ctx) error {
	var req EstimateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	listings, err := h.listingService.GetByIDs(c.UserContext(), req.ListingIDs)
	if err != nil {
		if errors.Is(err, services.ErrTooManyIDs) {
			return response.BadRequest(c, "At most 100 listings per estimate")
		}
		return response.InternalServerError(c, "Failed to load listings")
	}

	breakdown, err := payment.Estimate(listings, req.InstalmentMonths)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	return response.Success(c, "Estimate computed", breakdown)
}
