package middleware

import (
	"context"
	"errors"
	"strings"

	"estatehub/internal/core/access"
	"estatehub/internal/core/domain"
	"estatehub/internal/core/services"
	"estatehub/internal/pkg/jwt"
	"estatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the auth middlewares
const (
	LocalUserID = "userID"
	LocalEmail  = "email"
	LocalRole   = "role"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateAccessToken(accessToken string) (*jwt.Claims, error)
}

// RoleResolver reads the caller's current role from their profile
type RoleResolver interface {
	RoleOf(ctx context.Context, userID string) (domain.Role, error)
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return unauthorized(c, "Access token required")
		}

		claims, err := tokens.ValidateAccessToken(accessToken)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return unauthorized(c, "Access token expired")
			}
			return unauthorized(c, "Invalid access token")
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalEmail, claims.Email)

		return c.Next()
	}
}

// ResolveRole loads the caller's role on every request, so a role change
// takes effect without waiting for the token to expire. A caller without
// a profile gets an empty role.
func ResolveRole(roles RoleResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(LocalUserID).(string)
		if userID == "" {
			return unauthorized(c, "Unauthorized")
		}

		role, err := roles.RoleOf(c.UserContext(), userID)
		if err != nil && !errors.Is(err, services.ErrProfileNotFound) {
			return response.InternalServerError(c, "Failed to resolve role")
		}
		c.Locals(LocalRole, role)

		return c.Next()
	}
}

// RequireAdmin answers 403 naming the caller's role when it is not privileged
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(LocalUserID).(string)
		role, _ := c.Locals(LocalRole).(domain.Role)

		d := access.Settle(access.Decide(access.Request{
			SignedIn:     userID != "",
			RequireAdmin: true,
			Privileged:   access.Privileged(role),
			Role:         role,
			Target:       c.OriginalURL(),
		}))

		switch d.Outcome {
		case access.Allow:
			return c.Next()
		case access.Redirect:
			return unauthorized(c, "Unauthorized")
		default:
			return response.ErrorWithData(c, fiber.StatusForbidden, "access_denied",
				"Access denied for role "+d.Role, fiber.Map{"role": d.Role})
		}
	}
}

// OptionalAuth sets user info when a valid token is present
func OptionalAuth(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := extractToken(c); accessToken != "" {
			if claims, err := tokens.ValidateAccessToken(accessToken); err == nil {
				c.Locals(LocalUserID, claims.UserID)
				c.Locals(LocalEmail, claims.Email)
			}
		}
		return c.Next()
	}
}

// unauthorized answers 401 with the originally requested path so the
// client can return there after sign-in
func unauthorized(c *fiber.Ctx, message string) error {
	return response.ErrorWithData(c, fiber.StatusUnauthorized, "unauthorized", message,
		fiber.Map{"return_to": c.OriginalURL()})
}

func extractToken(c *fiber.Ctx) string {
	// Cookie first (browser clients), then Authorization header
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

