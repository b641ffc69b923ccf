package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/arihant-coaching/coaching_api/internal/auth"
	"github.com/arihant-coaching/coaching_api/internal/config"
	"github.com/arihant-coaching/coaching_api/internal/courses"
	"github.com/arihant-coaching/coaching_api/internal/enrollment"
	"github.com/arihant-coaching/coaching_api/internal/gateway"
	"github.com/arihant-coaching/coaching_api/internal/identity"
	"github.com/arihant-coaching/coaching_api/internal/idgen"
	"github.com/arihant-coaching/coaching_api/internal/middleware"
	"github.com/arihant-coaching/coaching_api/internal/notification"
	"github.com/arihant-coaching/coaching_api/internal/otp"
	"github.com/arihant-coaching/coaching_api/internal/receipt"
)

const uploadsPrefix = "/uploads"

// Deps aggregates shared dependencies required to wire routes. Nil DB or Cache
// selects in-memory stores; nil Notifier, Gateway or ReceiptStore select the
// logging notifier, the configured gateway and a local directory respectively.
type Deps struct {
	Cfg          config.Config
	DB           *pgxpool.Pool
	Cache        *redis.Client
	Logger       *slog.Logger
	Notifier     notification.Notifier
	Gateway      gateway.Gateway
	ReceiptStore receipt.Store
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Notifier == nil {
			return fmt.Errorf("a message notifier is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDev() {
		// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(d.Cfg.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	RegisterHealthRoutes(app, d)

	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	var (
		identityRepo   identity.Repository
		courseRepo     courses.Repository
		enrollmentRepo enrollment.Repository
		otpStore       otp.Store
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		courseRepo = courses.NewPostgresRepository(d.DB)
		enrollmentRepo = enrollment.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
		courseRepo = courses.NewMemoryRepository()
		enrollmentRepo = enrollment.NewMemoryRepository()
	}
	if d.Cache != nil {
		otpStore = otp.NewRedisStore(d.Cache)
	} else {
		otpStore = otp.NewMemoryStore()
	}

	identitySvc := identity.NewService(identityRepo, d.Cfg.BcryptCost)
	identitySvc.RequireVerifiedEmail = d.Cfg.RequireOTP
	otpSvc := otp.NewService(otpStore, notifier, d.Logger, otp.Options{TTL: d.Cfg.OTPTTL, Attempts: d.Cfg.OTPAttempts})
	tokens := auth.NewTokenService(d.Cfg.SigningSecret(), d.Cfg.TokenTTL)

	gw := d.Gateway
	if gw == nil {
		if d.Cfg.RazorpayKeyID != "" && d.Cfg.RazorpayKeySecret != "" {
			gw = gateway.NewRazorpayGateway(d.Cfg.RazorpayKeyID, d.Cfg.RazorpayKeySecret, d.Cfg.Currency, d.Cfg.GatewayTimeout, d.Logger)
		} else {
			d.Logger.Warn("razorpay keys not configured, using static gateway")
			gw = gateway.StaticGateway{KeyID: d.Cfg.RazorpayKeyID, Currency: d.Cfg.Currency}
		}
	}

	store := d.ReceiptStore
	if store == nil {
		dirStore, err := receipt.NewDirStore(d.Cfg.ReceiptDir, uploadsPrefix)
		if err != nil {
			return err
		}
		app.Static(uploadsPrefix, d.Cfg.ReceiptDir)
		store = dirStore
	}
	seq, err := idgen.NewSequence(d.Cfg.SnowflakeNode)
	if err != nil {
		return err
	}
	issuer := receipt.NewIssuer(receipt.Generator{Institute: d.Cfg.InstituteName}, store, seq)
	enrollmentSvc := enrollment.NewService(enrollmentRepo, gateway.NewVerifier(d.Cfg.PaymentSecret()), issuer, notifier, d.Logger)
	courseSvc := courses.NewService(courseRepo)

	authHandler := auth.NewHandler(identitySvc, otpSvc, tokens, d.Logger)
	enrollmentHandler := enrollment.NewHandler(enrollmentSvc, gw, d.Cfg.Currency)
	identityHandler := identity.NewHandler(identitySvc)
	courseHandler := courses.NewHandler(courseSvc)

	authenticate := middleware.Authenticate(tokens)
	adminGate := []fiber.Handler{authenticate, middleware.RequireRole(identity.RoleAdmin)}
	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	api := app.Group("/api")
	api.Get("/ping", ping)
	RegisterAuthRoutes(api, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginPerMinute), authenticate)
	RegisterPaymentRoutes(api, enrollmentHandler, idempotency)
	RegisterCourseRoutes(api, adminGate, courseHandler)
	RegisterAdminRoutes(api, adminGate, identityHandler, enrollmentHandler)

	return nil
}
