package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/agroci/agroci-api/internal/config"
	"github.com/agroci/agroci-api/internal/domain/authhook"
	"github.com/agroci/agroci-api/internal/domain/credit"
	"github.com/agroci/agroci-api/internal/domain/notification"
	"github.com/agroci/agroci-api/internal/domain/payment"
	"github.com/agroci/agroci-api/internal/domain/plan"
	"github.com/agroci/agroci-api/internal/middleware"
	"github.com/agroci/agroci-api/internal/pkg/database"
	"github.com/agroci/agroci-api/internal/pkg/email"
	"github.com/agroci/agroci-api/internal/pkg/jwt"
	"github.com/agroci/agroci-api/internal/pkg/logger"
	"github.com/agroci/agroci-api/internal/pkg/paystack"
	pkgresponse "github.com/agroci/agroci-api/internal/pkg/response"
	"github.com/agroci/agroci-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting AgroCI API")

	db, err := database.NewPostgres(cfg.Postgres())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if os.Getenv("AUTO_MIGRATE") == "true" {
		if err := database.MigrateUp(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	// Redis is optional
	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without it")
		redis = nil
	}
	defer database.CloseRedis(redis)

	catalog, err := plan.Load(cfg.PlansFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.PlansFile).Msg("Failed to load plan catalog")
	}

	jwtService := jwt.NewService(cfg.SupabaseJWTSecret, time.Hour)

	paystackClient := paystack.NewClient(paystack.Config{
		BaseURL:   cfg.PaystackBaseURL,
		SecretKey: cfg.PaystackSecretKey,
	})

	archive := newArchive(cfg)

	// ---------- Email ----------
	var sender email.Sender = email.LogSender{}
	if cfg.ResendAPIKey != "" {
		sender = email.NewResendClient(cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		log.Warn().Msg("RESEND_API_KEY not set, emails will only be logged")
	}
	emailService := email.NewService(sender)
	defer emailService.Close()

	// ---------- Realtime ----------
	hub := notification.NewHub(redis)
	go hub.Run()
	defer hub.Shutdown()

	// ---------- Credits ----------
	creditRepo := credit.NewRepository(db)
	notifier := credit.MultiNotifier{
		credit.NewReceiptNotifier(emailService, catalog),
		notification.NewCreditNotifier(hub),
	}
	reconciler := credit.NewReconciler(
		creditRepo,
		paystackClient,
		credit.NewProcessedCache(redis),
		notifier,
		cfg.PaystackVerifyTimeout,
	)

	// ---------- Payments ----------
	paymentService := payment.NewService(
		paystackClient,
		catalog,
		creditRepo,
		payment.NewRateLimiter(redis, cfg.InitiateRateLimit, cfg.InitiateRateWindow),
		payment.Config{Currency: cfg.PaystackCurrency, CallbackURL: cfg.PaystackCallbackURL},
	)
	verifier := payment.NewWebhookVerifier(cfg.PaystackSecretKey, reconciler, catalog, archive)

	handlers := routerDeps{
		jwt:          jwtService,
		plans:        plan.NewHandler(catalog),
		payments:     payment.NewHandler(paymentService, verifier),
		credits:      credit.NewHandler(credit.NewService(creditRepo)),
		notification: notification.NewHandler(hub, cfg.AllowedOrigins),
		authHook:     newAuthHookHandler(cfg, emailService),
		health:       database.NewChecker(db, redis),
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, handlers),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

type routerDeps struct {
	jwt          *jwt.Service
	plans        *plan.Handler
	payments     *payment.Handler
	credits      *credit.Handler
	notification *notification.Handler
	authHook     *authhook.Handler
	health       *database.Checker
}

func newRouter(cfg *config.Config, d routerDeps) chi.Router {
	authMiddleware := middleware.Auth(d.jwt)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint; browsers cannot set headers on the upgrade request
	r.Mount("/ws", d.notification.Routes(middleware.QueryTokenAuth(d.jwt)))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := d.health.Check(r.Context())
		if !health.Healthy() && health.Database != database.StatusDisabled {
			logger.LogWarn(r.Context(), "Health check degraded", "database", health.Database, "redis", health.Redis)
			pkgresponse.Raw(w, http.StatusServiceUnavailable, health)
			return
		}
		pkgresponse.Raw(w, http.StatusOK, health)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Mount("/plans", d.plans.Routes())
		r.Mount("/payments", d.payments.Routes(authMiddleware))
		r.Mount("/credits", d.credits.Routes(authMiddleware))
	})

	// Signature-verified, no bearer auth
	r.Mount("/webhooks/paystack", d.payments.WebhookRoutes())
	if d.authHook != nil {
		r.Mount("/hooks", d.authHook.Routes())
	}

	return r
}

func newArchive(cfg *config.Config) storage.Archive {
	if !cfg.ArchiveEnabled() {
		log.Info().Msg("Webhook archive disabled")
		return storage.Nop{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		archive *storage.S3Archive
		err     error
	)
	if cfg.ArchiveR2Account != "" {
		archive, err = storage.NewR2Archive(ctx, storage.R2Config{
			AccountID:       cfg.ArchiveR2Account,
			AccessKeyID:     cfg.ArchiveAccessKey,
			AccessKeySecret: cfg.ArchiveSecretKey,
			BucketName:      cfg.ArchiveBucket,
		})
	} else {
		archive, err = storage.NewS3Archive(ctx, storage.Config{
			Bucket:    cfg.ArchiveBucket,
			Region:    cfg.ArchiveRegion,
			Endpoint:  cfg.ArchiveEndpoint,
			AccessKey: cfg.ArchiveAccessKey,
			SecretKey: cfg.ArchiveSecretKey,
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to init webhook archive, archiving disabled")
		return storage.Nop{}
	}

	log.Info().Str("bucket", cfg.ArchiveBucket).Msg("Webhook archive enabled")
	return archive
}

func newAuthHookHandler(cfg *config.Config, mailer authhook.Mailer) *authhook.Handler {
	if cfg.SendEmailHookSecret == "" {
		log.Warn().Msg("SEND_EMAIL_HOOK_SECRET not set, auth email hook disabled")
		return nil
	}

	verifier, err := authhook.NewVerifier(cfg.SendEmailHookSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid SEND_EMAIL_HOOK_SECRET")
	}
	return authhook.NewHandler(verifier, authhook.NewService(mailer, cfg.SupabaseURL))
}
