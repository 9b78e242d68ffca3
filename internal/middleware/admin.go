package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth guards operator routes with a bearer token checked against a
// bcrypt hash. An empty hash disables the routes entirely.
func AdminAuth(tokenHash []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(tokenHash) == 0 {
			return fiber.NewError(http.StatusNotFound, "operator routes are disabled")
		}
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		if err := bcrypt.CompareHashAndPassword(tokenHash, []byte(token)); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
		}
		return c.Next()
	}
}
