package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tenderdesk/tenderdesk/internal/audit"
	"github.com/tenderdesk/tenderdesk/internal/auth"
	"github.com/tenderdesk/tenderdesk/internal/compliance"
	"github.com/tenderdesk/tenderdesk/internal/config"
	"github.com/tenderdesk/tenderdesk/internal/escrow"
	"github.com/tenderdesk/tenderdesk/internal/identity"
	"github.com/tenderdesk/tenderdesk/internal/kyc"
	"github.com/tenderdesk/tenderdesk/internal/middleware"
	"github.com/tenderdesk/tenderdesk/internal/notification"
	"github.com/tenderdesk/tenderdesk/internal/tender"
	"github.com/tenderdesk/tenderdesk/internal/twofactor"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.RequestLogger(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Repositories: Postgres in production, in-memory in dev mode.
	var (
		userRepo    identity.Repository
		codeRepo    auth.CodeRepository
		tenderRepo  tender.Repository
		escrowRepo  escrow.Repository
		kycRepo     kyc.Repository
		auditRepo   audit.Repository
		erasureRepo compliance.ErasureRepository
	)
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
		codeRepo = auth.NewPostgresCodeRepository(d.DB)
		tenderRepo = tender.NewPostgresRepository(d.DB)
		escrowRepo = escrow.NewPostgresRepository(d.DB)
		kycRepo = kyc.NewPostgresRepository(d.DB)
		auditRepo = audit.NewPostgresRepository(d.DB)
		erasureRepo = compliance.NewPostgresErasureRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
		codeRepo = auth.NewMemoryCodeRepository()
		tenderRepo = tender.NewMemoryRepository()
		escrowRepo = escrow.NewMemoryRepository()
		kycRepo = kyc.NewMemoryRepository()
		auditRepo = audit.NewMemoryRepository()
		erasureRepo = compliance.NewMemoryErasureRepository()
	}

	var sessionStore auth.SessionStore
	if d.Cache != nil {
		sessionStore = auth.NewRedisSessionStore(d.Cache)
	} else {
		sessionStore = auth.NewMemorySessionStore()
	}

	// Services
	audits := audit.NewService(auditRepo, d.Logger)
	notifier := notification.NewLoggerNotifier(d.Logger)
	identitySvc := identity.NewService(userRepo)
	authSvc := auth.NewService(identitySvc, codeRepo, sessionStore, notifier, d.Cfg.OTPTTL, d.Cfg.SessionTTL)
	twofactorSvc := twofactor.NewService(userRepo, d.Cfg.TOTPIssuer)
	tenderSvc := tender.NewService(tenderRepo)
	escrowSvc := escrow.NewService(escrowRepo)
	kycSvc := kyc.NewService(kycRepo)
	complianceSvc := compliance.NewService(userRepo, tenderRepo, kycRepo, escrowRepo, erasureRepo)

	// Handlers
	authHandler := auth.NewHandler(authSvc, audits, d.Cfg.IsDev())
	twofactorHandler := twofactor.NewHandler(twofactorSvc, audits)
	tenderHandler := tender.NewHandler(tenderSvc, audits)
	escrowHandler := escrow.NewHandler(escrowSvc, audits)
	kycHandler := kyc.NewHandler(kycSvc, audits)
	complianceHandler := compliance.NewHandler(complianceSvc, audits)

	// API routes
	api := app.Group("/api/v1")
	api.Use(middleware.Session(authSvc))
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit)
	RegisterAuthRoutes(api, authHandler, twofactorHandler, rateLimiter)
	RegisterTenderRoutes(api, tenderHandler)
	RegisterEscrowRoutes(api, escrowHandler)
	RegisterKycRoutes(api, kycHandler)
	RegisterComplianceRoutes(api, complianceHandler)

	return nil
}
