package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/congo_vault/internal/config"
	"github.com/congo-pay/congo_vault/internal/faucet"
	"github.com/congo-pay/congo_vault/internal/ledger"
	"github.com/congo-pay/congo_vault/internal/middleware"
	"github.com/congo-pay/congo_vault/internal/notification"
	"github.com/congo-pay/congo_vault/internal/runtime"
	"github.com/congo-pay/congo_vault/internal/system"
	"github.com/congo-pay/congo_vault/internal/token"
	"github.com/congo-pay/congo_vault/internal/vault"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// AccessLog enables the plain text access log. Tests leave it off.
	AccessLog bool
}

// Setup configures middlewares and all application routes. The returned
// function releases the transaction runtime and must be called on shutdown.
func Setup(app *fiber.App, d Deps) (func(), error) {
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.AccessLog {
		// [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger, middleware.BodyDigest))
	}

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewInMemory()
	}

	sys := system.NewProgram()
	tokens := token.NewProgram(sys)
	program := vault.NewProgram(d.Cfg.ProgramID, sys, tokens)
	notifier := notification.NewLoggerNotifier(d.Logger)
	rt := runtime.New(store, program, notifier, d.Logger, d.Cfg.BatchConcurrency)

	operator, err := solana.NewRandomPrivateKey()
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("generate faucet operator: %w", err)
	}
	faucetSvc := faucet.NewService(store, sys, tokens, operator.PublicKey())
	d.Logger.Info("routes configured",
		slog.String("program_id", program.ID().String()),
		slog.String("faucet_operator", operator.PublicKey().String()),
		slog.Bool("admin_enabled", d.Cfg.AdminTokenHash != nil),
	)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"program_id": program.ID().String(),
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterTransactionRoutes(api, runtime.NewHandler(rt), middleware.SignerRateLimit(d.Cache, d.Cfg.SignerRateLimit, d.Logger))
	RegisterVaultRoutes(api, vault.NewHandler(vault.NewService(store, program.ID())))
	RegisterAdminRoutes(api, faucet.NewHandler(faucetSvc), middleware.AdminAuth(d.Cfg.AdminTokenHash))

	return rt.Close, nil
}
