package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const signerLocal = "vault_signer"

type signedBody struct {
	Instruction struct {
		Accounts struct {
			Signer string `json:"signer"`
		} `json:"accounts"`
	} `json:"instruction"`
	Transactions []signedBody `json:"transactions"`
}

func (b signedBody) signers() []string {
	var out []string
	if s := b.Instruction.Accounts.Signer; s != "" {
		out = append(out, s)
	}
	for _, tx := range b.Transactions {
		out = append(out, tx.signers()...)
	}
	return out
}

// SignerRateLimit limits submitted instructions per vault signer (or per IP
// when the body names no signer) using Redis counters with a one-minute window.
// A batch counts once per contained transaction.
func SignerRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 30
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}

		var body signedBody
		_ = json.Unmarshal(c.Body(), &body)
		signers := body.signers()
		if len(signers) == 0 {
			signers = []string{c.IP()}
		} else {
			c.Locals(signerLocal, signers[0])
		}

		for _, s := range signers {
			key := "rl:signer:" + s
			cnt, err := cache.Incr(c.UserContext(), key).Result()
			if err != nil {
				logger.Warn("signer rate limit unavailable", slog.Any("error", err))
				return c.Next() // fail-open on cache errors
			}
			if cnt == 1 {
				cache.Expire(c.UserContext(), key, time.Minute)
			}
			if cnt > int64(maxPerMin) {
				return fiber.NewError(http.StatusTooManyRequests, "too many transactions for signer, try again later")
			}
		}
		return c.Next()
	}
}
