package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// UserIDHeader identifies the studio owner acting on a request.
	UserIDHeader = "X-User-ID"

	ownerLocalKey     = "owner_id"
	requestIDLocalKey = "requestid"
)

// RequireOwner rejects requests without an X-User-ID header and stores the owner for handlers.
func RequireOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := strings.TrimSpace(c.Get(UserIDHeader))
		if owner == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing " + UserIDHeader + " header",
			})
		}
		if len(owner) > 255 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": UserIDHeader + " header exceeds maximum length of 255",
			})
		}
		c.Locals(ownerLocalKey, owner)
		return c.Next()
	}
}

func ownerID(c *fiber.Ctx) string {
	owner, _ := c.Locals(ownerLocalKey).(string)
	return owner
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocalKey).(string)
	return id
}
