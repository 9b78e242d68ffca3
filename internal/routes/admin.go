package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/congo_vault/internal/faucet"
)

// RegisterAdminRoutes wires operator endpoints behind the admin token.
func RegisterAdminRoutes(r fiber.Router, h *faucet.Handler, auth fiber.Handler) {
	admin := r.Group("/admin", auth)
	admin.Post("/airdrop", h.Airdrop)
	admin.Post("/mints", h.CreateMint)
	admin.Post("/mints/:mint/accounts", h.CreateTokenAccount)
	admin.Post("/mints/:mint/mint-to", h.MintTo)
}
