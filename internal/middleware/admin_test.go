package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func adminStatus(t *testing.T, hash []byte, authorization string) int {
	t.Helper()
	app := fiber.New()
	app.Post("/admin/airdrop", AdminAuth(hash), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(fiber.MethodPost, "/admin/airdrop", nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestAdminAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tests := []struct {
		name          string
		hash          []byte
		authorization string
		want          int
	}{
		{"valid token", hash, "Bearer s3cret", fiber.StatusNoContent},
		{"wrong token", hash, "Bearer nope", fiber.StatusUnauthorized},
		{"missing header", hash, "", fiber.StatusUnauthorized},
		{"not bearer", hash, "Basic s3cret", fiber.StatusUnauthorized},
		{"disabled", nil, "Bearer s3cret", fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adminStatus(t, tt.hash, tt.authorization); got != tt.want {
				t.Fatalf("expected %d got %d", tt.want, got)
			}
		})
	}
}
