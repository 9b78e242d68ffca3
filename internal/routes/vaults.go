package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/congo_vault/internal/vault"
)

// RegisterVaultRoutes wires read-only vault and account lookups.
func RegisterVaultRoutes(r fiber.Router, h *vault.Handler) {
	r.Get("/vaults/:owner", h.GetVault)
	r.Get("/accounts/:address", h.GetAccount)
	r.Get("/token-accounts/:address", h.GetTokenAccount)
}
