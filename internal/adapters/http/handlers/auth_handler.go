package handlers

import (
	"errors"
	"time"

	"estatehub/internal/config"
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/password"
	"estatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// SignUpRequest represents registration request body
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// SignInRequest represents sign-in request body
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token for non-browser clients
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignUp handles user registration
// @Summary Sign up
// @Description Create an identity and open a session. The profile row is created separately.
// @Tags Auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SignUpRequest true "Registration data"
// @Success 201 {object} response.Response{data=domain.Session}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	session, err := h.authService.SignUp(c.UserContext(), &services.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, password.ErrTooShort):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrInvalidEmail):
			return response.BadRequest(c, "Invalid email address")
		case errors.Is(err, services.ErrUserAlreadyExists):
			return response.Conflict(c, "Email already registered")
		default:
			return response.InternalServerError(c, "Failed to sign up")
		}
	}

	h.setAuthCookies(c, session.AccessToken, session.RefreshToken)
	return response.Created(c, "Signed up successfully", session)
}

// SignIn handles email/password sign-in
// @Summary Sign in
// @Description Authenticate and return a session
// @Tags Auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SignInRequest true "Credentials"
// @Success 200 {object} response.Response{data=domain.Session}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	session, err := h.authService.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return response.ErrorWithData(c, fiber.StatusUnauthorized, "invalid_credentials", "Invalid email or password", nil)
		case errors.Is(err, services.ErrUserInactive):
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.InternalServerError(c, "Failed to sign in")
		}
	}

	h.setAuthCookies(c, session.AccessToken, session.RefreshToken)
	return response.Success(c, "Signed in successfully", session)
}

// Refresh handles token refresh
// @Summary Refresh session
// @Description Rotate the refresh token and issue a new access token
// @Tags Auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body RefreshRequest false "Refresh token (falls back to cookie)"
// @Success 200 {object} response.Response{data=domain.Session}
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	session, err := h.authService.Refresh(c.UserContext(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token expired, please sign in again")
		case errors.Is(err, services.ErrTokenRevoked):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token revoked, please sign in again")
		case errors.Is(err, services.ErrInvalidToken):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, services.ErrUserInactive):
			h.clearAuthCookies(c)
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.InternalServerError(c, "Failed to refresh session")
		}
	}

	h.setAuthCookies(c, session.AccessToken, session.RefreshToken)
	return response.Success(c, "Session refreshed", session)
}

// SignOut handles sign-out
// @Summary Sign out
// @Description Revoke the refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body RefreshRequest false "Refresh token (falls back to cookie)"
// @Success 200 {object} response.Response
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if refreshToken := h.refreshTokenFrom(c); refreshToken != "" {
		_ = h.authService.SignOut(c.UserContext(), refreshToken)
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Signed out", nil)
}

// SignOutAll handles sign-out from all devices
// @Summary Sign out everywhere
// @Description Revoke all refresh tokens for the caller
// @Tags Auth
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/signout-all [post]
func (h *AuthHandler) SignOutAll(c *fiber.Ctx) error {
	if err := h.authService.SignOutAll(c.UserContext(), userIDFrom(c)); err != nil {
		return response.InternalServerError(c, "Failed to sign out from all devices")
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Signed out from all devices", nil)
}

// Session returns the identity behind the access token
// @Summary Get session
// @Description Validate the access token and return its identity
// @Tags Auth
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} response.Response{data=domain.User}
// @Failure 401 {object} response.Response
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(c.UserContext(), userIDFrom(c))
	if err != nil {
		return response.Unauthorized(c, "Session user no longer exists")
	}
	return response.Success(c, "Session is valid", user)
}

func (h *AuthHandler) refreshTokenFrom(c *fiber.Ctx) string {
	var req RefreshRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}
	if req.RefreshToken != "" {
		return req.RefreshToken
	}
	return c.Cookies("refresh_token")
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.RefreshTokenDays * 24 * 60 * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Now().Add(-1 * time.Hour),
			Secure:   h.cfg.Cookie.Secure,
			HTTPOnly: true,
			SameSite: h.cfg.Cookie.SameSite,
			Domain:   h.cfg.Cookie.Domain,
		})
	}
}
