package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/tradepay/internal/account"
	"github.com/congo-pay/tradepay/internal/auditlog"
	"github.com/congo-pay/tradepay/internal/auth"
	"github.com/congo-pay/tradepay/internal/config"
	"github.com/congo-pay/tradepay/internal/ledger"
	"github.com/congo-pay/tradepay/internal/middleware"
	"github.com/congo-pay/tradepay/internal/notification"
	"github.com/congo-pay/tradepay/internal/transfer"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache may be
// nil outside production, in which case in-memory backends are used.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Notifier notification.Notifier
}

// Backends are the stores chosen by Setup.
type Backends struct {
	Accounts account.Repository
	Ledger   ledger.Ledger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) (Backends, error) {
	if d.Cfg.IsProduction() {
		if d.DB == nil {
			return Backends{}, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return Backends{}, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID(d.Logger))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	backends := newBackends(d)

	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	secret := d.Cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		d.Logger.Warn("JWT_SECRET not set, using an ephemeral secret")
	}
	tokens, err := auth.NewTokenManager(secret, d.Cfg.JWTIssuer, d.Cfg.JWTTTL)
	if err != nil {
		return Backends{}, err
	}

	var pending auth.PendingStore = auth.NewMemoryPendingStore()
	if d.Cache != nil {
		pending = auth.NewRedisPendingStore(d.Cache)
	}
	authSvc := auth.NewService(backends.Accounts, pending, tokens, notifier, d.Logger, auth.Config{
		BackendURL:      d.Cfg.BackendURL,
		RegistrationTTL: d.Cfg.RegistrationTTL,
		NotifyTimeout:   d.Cfg.NotifyTimeout,
	})

	engine := transfer.NewEngine(backends.Accounts, backends.Ledger, notifier, d.Logger, transfer.Config{
		NotifyTimeout: d.Cfg.NotifyTimeout,
		AuditTimeout:  d.Cfg.AuditTimeout,
	})
	logSvc := auditlog.NewService(backends.Accounts, backends.Ledger, notifier, d.Logger, d.Cfg.NotifyTimeout)

	loginLimiter, err := middleware.NewLimiter(d.Cache, "login", d.Cfg.RateLimitLogin.Limit, d.Cfg.RateLimitLogin.Window)
	if err != nil {
		return Backends{}, err
	}
	transferLimiter, err := middleware.NewLimiter(d.Cache, "transfer", d.Cfg.RateLimitTransfer.Limit, d.Cfg.RateLimitTransfer.Window)
	if err != nil {
		return Backends{}, err
	}

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAuthRoutes(api, auth.NewHandler(authSvc), middleware.RateLimit(loginLimiter, middleware.ByIP, d.Logger))

	protected := api.Group("", middleware.JWTAuth(tokens))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, middleware.IdempotencyConfig{
			TTL:      d.Cfg.IdempotencyTTL,
			Required: d.Cfg.IdempotencyRequired,
		}, d.Logger))
	}
	RegisterTransferRoutes(protected, transfer.NewHandler(engine, d.Cfg.TransferTimeout),
		middleware.RateLimit(transferLimiter, middleware.ByUser, d.Logger))
	RegisterLogRoutes(protected, auditlog.NewHandler(logSvc))

	return backends, nil
}

func newBackends(d Deps) Backends {
	if d.DB != nil {
		return Backends{
			Accounts: account.NewPostgresRepository(d.DB),
			Ledger:   ledger.NewPostgresLedger(d.DB),
		}
	}
	d.Logger.Warn("DATABASE_URL not set, using the in-memory ledger")
	mem := ledger.NewInMemory()
	return Backends{Accounts: mem, Ledger: mem}
}
