package handlers

import (
	"errors"

	"estatehub/internal/core/domain"
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/pagination"
	"estatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	profileService *services.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// ChangeRoleRequest represents role change body
type ChangeRoleRequest struct {
	Role domain.Role `json:"role"`
}

// GetMe returns the caller's profile
// @Summary Get my profile
// @Tags Profiles
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} response.Response{data=domain.Profile}
// @Failure 404 {object} response.Response
// @Router /profiles/me [get]
func (h *ProfileHandler) GetMe(c *fiber.Ctx) error {
	return h.get(c, userIDFrom(c))
}

// GetByID returns a profile; users may only read their own
// @Summary Get profile
// @Tags Profiles
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response{data=domain.Profile}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /profiles/{id} [get]
func (h *ProfileHandler) GetByID(c *fiber.Ctx) error {
	actor := actorFrom(c)
	id := c.Params("id")
	if id != actor.UserID && !actor.IsAdmin() {
		return response.Forbidden(c, "You can only read your own profile")
	}
	return h.get(c, id)
}

func (h *ProfileHandler) get(c *fiber.Ctx, userID string) error {
	profile, err := h.profileService.Get(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return response.NotFound(c, "Profile not found")
		}
		return response.InternalServerError(c, "Failed to get profile")
	}
	return response.Success(c, "Profile retrieved successfully", profile)
}

// Create inserts a profile row
// @Summary Create profile
// @Description Users insert their own row with the standard role; admins may insert any row.
// @Tags Profiles
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param body body services.CreateProfileInput true "Profile"
// @Success 201 {object} response.Response{data=domain.Profile}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /profiles [post]
func (h *ProfileHandler) Create(c *fiber.Ctx) error {
	var input services.CreateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	profile, err := h.profileService.Create(c.UserContext(), actorFrom(c), &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You can only create your own profile")
		case errors.Is(err, services.ErrInvalidRole):
			return response.BadRequest(c, "Invalid role")
		case errors.Is(err, services.ErrProfileExists):
			return response.Conflict(c, "Profile already exists")
		default:
			return response.InternalServerError(c, "Failed to create profile")
		}
	}
	return response.Created(c, "Profile created successfully", profile)
}

// UpdateMe edits the caller's contact fields
// @Summary Update my profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param body body services.UpdateProfileInput true "Fields to change"
// @Success 200 {object} response.Response{data=domain.Profile}
// @Failure 404 {object} response.Response
// @Router /profiles/me [put]
func (h *ProfileHandler) UpdateMe(c *fiber.Ctx) error {
	var input services.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	profile, err := h.profileService.UpdateOwn(c.UserContext(), userIDFrom(c), &input)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			return response.NotFound(c, "Profile not found")
		}
		return response.InternalServerError(c, "Failed to update profile")
	}
	return response.Success(c, "Profile updated successfully", profile)
}

// List lists profiles (admin)
// @Summary List profiles
// @Tags Profiles
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response{data=services.ListProfilesOutput}
// @Failure 403 {object} response.Response
// @Router /profiles [get]
func (h *ProfileHandler) List(c *fiber.Ctx) error {
	out, err := h.profileService.List(c.UserContext(), pagination.GetParams(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to list profiles")
	}
	return response.Success(c, "Profiles retrieved successfully", out)
}

// ChangeRole sets another user's role (admin)
// @Summary Change role
// @Tags Profiles
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body ChangeRoleRequest true "New role"
// @Success 200 {object} response.Response{data=domain.Profile}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /profiles/{id}/role [put]
func (h *ProfileHandler) ChangeRole(c *fiber.Ctx) error {
	var req ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	profile, err := h.profileService.ChangeRole(c.UserContext(), actorFrom(c), c.Params("id"), req.Role)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Only admins can change roles")
		case errors.Is(err, services.ErrCannotChangeOwnRole):
			return response.BadRequest(c, "You cannot change your own role")
		case errors.Is(err, services.ErrInvalidRole):
			return response.BadRequest(c, "Invalid role")
		case errors.Is(err, services.ErrProfileNotFound):
			return response.NotFound(c, "Profile not found")
		default:
			return response.InternalServerError(c, "Failed to change role")
		}
	}
	return response.Success(c, "Role changed successfully", profile)
}
