package handlers

import (
	"estatehub/internal/adapters/http/middleware"
	"estatehub/internal/core/domain"
	"estatehub/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// actorFrom builds the service actor from values set by the auth middlewares
func actorFrom(c *fiber.Ctx) services.Actor {
	userID, _ := c.Locals(middleware.LocalUserID).(string)
	role, _ := c.Locals(middleware.LocalRole).(domain.Role)
	return services.Actor{UserID: userID, Role: role}
}

func userIDFrom(c *fiber.Ctx) string {
	userID, _ := c.Locals(middleware.LocalUserID).(string)
	return userID
}
