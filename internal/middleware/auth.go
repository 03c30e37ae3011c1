package middleware

import (
	"immoci-backend/internal/domain"
	"immoci-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. 401 otherwise.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			return response.Unauthorized(c, "Non authentifie")
		}
		c.Locals("auth", user)
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// Caller extracts the explicit caller identity from the session user. Core
// operations take this as a parameter; they never read the session
// themselves.
func Caller(c *fiber.Ctx) (domain.CallerContext, error) {
	user, _ := c.Locals(userLocal).(map[string]interface{})
	idStr, _ := user["user_id"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return domain.CallerContext{}, domain.ErrUnauthorized
	}
	return domain.CallerContext{OwnerID: id}, nil
}
