package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cyberhr/internal/domain/core"
	"cyberhr/internal/domain/identity"
	"cyberhr/internal/domain/leave"
	"cyberhr/internal/domain/notifications"
	"cyberhr/internal/domain/payroll"
	"cyberhr/internal/domain/provisioning"
	"cyberhr/internal/domain/whatsapp"
	"cyberhr/internal/platform/config"
	"cyberhr/internal/platform/crypto"
	"cyberhr/internal/platform/db"
	"cyberhr/internal/platform/email"
	"cyberhr/internal/platform/metrics"
	"cyberhr/internal/platform/storage"
	"cyberhr/internal/transport/http/api"
	authhandler "cyberhr/internal/transport/http/handlers/auth"
	employeeshandler "cyberhr/internal/transport/http/handlers/employees"
	fileshandler "cyberhr/internal/transport/http/handlers/files"
	leavehandler "cyberhr/internal/transport/http/handlers/leave"
	notificationshandler "cyberhr/internal/transport/http/handlers/notifications"
	payslipshandler "cyberhr/internal/transport/http/handlers/payslips"
	whatsapphandler "cyberhr/internal/transport/http/handlers/whatsapp"
	"cyberhr/internal/transport/http/middleware"
)

// App wires the database pool, domain services and HTTP router together.
type App struct {
	Config config.Config

	pool      *pgxpool.Pool
	collector *metrics.Collector
	router    http.Handler
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed database: %w", err)
		}
	}

	cipher, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init data encryption: %w", err)
	}

	objects := storage.NewLocal(cfg.StorageDir, cfg.AppBaseURL, cfg.StorageSigningKey)
	mailer := email.New(cfg)

	notifySvc := notifications.NewService(notifications.NewStore(pool), mailer, cfg.EmailFrom)
	identitySvc := identity.NewService(identity.NewStore(pool), mailer, cfg.JWTSecret, cfg.EmailFrom, cfg.AppBaseURL)

	coreStore := core.NewStore(pool, cipher)
	coreSvc := core.NewService(coreStore, objects)
	provisionSvc := provisioning.NewService(identitySvc, coreStore, notifySvc)

	leaveSvc := leave.NewService(leave.NewStore(pool), objects, notifySvc)
	payrollSvc := payroll.NewService(payroll.NewStore(pool), objects, notifySvc, cfg.PayslipURLTTL)
	whatsappSvc := whatsapp.NewService(whatsapp.NewStore(pool), leaveSvc)

	app := &App{
		Config:    cfg,
		pool:      pool,
		collector: metrics.New(),
	}

	authHandler := authhandler.NewHandler(identitySvc)
	employeesHandler := employeeshandler.NewHandler(coreSvc, provisionSvc)
	leaveHandler := leavehandler.NewHandler(leaveSvc)
	payslipsHandler := payslipshandler.NewHandler(payrollSvc)
	notificationsHandler := notificationshandler.NewHandler(notifySvc)
	whatsappHandler := whatsapphandler.NewHandler(whatsappSvc, cfg.WhatsAppWebhookToken)
	filesHandler := fileshandler.NewHandler(objects)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(app.collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, app.collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		employeesHandler.RegisterRoutes(r)
		leaveHandler.RegisterRoutes(r)
		payslipsHandler.RegisterRoutes(r)
		notificationsHandler.RegisterRoutes(r)
		whatsappHandler.RegisterRoutes(r)
	})

	// Legacy endpoints kept for the existing frontend and email links.
	router.Post("/api/auth/update-password", authHandler.HandleCompatUpdatePassword)
	router.Post("/api/payslips/firmar", payslipsHandler.HandleCompatSign)

	filesHandler.RegisterRoutes(router)

	app.router = router
	return app, nil
}

func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) Close() {
	a.pool.Close()
}
