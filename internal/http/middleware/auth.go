package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserIDLocalKey is the key used to store the authenticated user id in
// Fiber's context locals.
const UserIDLocalKey = "user_id"

// TokenVerifier validates a bearer token and returns the user id it carries.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// BearerAuth guards routes behind a bearer token.
//
// Behavior:
// - Missing or malformed Authorization header yields 401.
// - A token the verifier rejects yields 403.
// - On success the user id is stored under UserIDLocalKey.
func BearerAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Access token required")
		}

		userID, err := verifier.VerifyToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "Invalid or expired token")
		}

		c.Locals(UserIDLocalKey, userID)
		return c.Next()
	}
}

// UserIDFromCtx extracts the user id previously stored by BearerAuth.
func UserIDFromCtx(c *fiber.Ctx) string {
	if v, ok := c.Locals(UserIDLocalKey).(string); ok {
		return v
	}
	return ""
}
