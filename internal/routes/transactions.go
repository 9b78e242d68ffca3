package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/congo_vault/internal/runtime"
)

// RegisterTransactionRoutes wires signed instruction submission.
func RegisterTransactionRoutes(r fiber.Router, h *runtime.Handler, limiter fiber.Handler) {
	r.Post("/transactions", limiter, h.Submit)
	r.Post("/transactions/batch", limiter, h.SubmitBatch)
}
