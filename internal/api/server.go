package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/goviral/goviral/internal/api/handler"
	mw "github.com/goviral/goviral/internal/api/middleware"
	"github.com/goviral/goviral/internal/config"
	"github.com/goviral/goviral/internal/core"
	"github.com/goviral/goviral/internal/payment/paystack"
	"github.com/goviral/goviral/internal/payment/stripeclient"
)

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	services    *core.Services
	pool        *pgxpool.Pool
	paystack    *paystack.Client
	stripe      *stripeclient.Client
	cfg         *config.Config
	auditLogger *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, cfg *config.Config) *Server {
	paystackClient := paystack.NewClient(cfg.PaystackSecretKey, cfg.PaystackCallbackURL)
	stripeClient := stripeclient.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)

	services := core.NewServices(pool, paystackClient, stripeClient, logger)
	auditLogger := mw.NewAuditLogger(pool, logger)

	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		services:    services,
		pool:        pool,
		paystack:    paystackClient,
		stripe:      stripeClient,
		cfg:         cfg,
		auditLogger: auditLogger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// Provider webhooks carry their own signature auth.
	webhook := handler.NewWebhook(s.paystack, s.stripe, s.services.Reconciler, s.logger)
	s.router.Post("/webhooks/paystack", webhook.Paystack)
	s.router.Post("/webhooks/stripe", webhook.Stripe)

	// Public pricing
	plan := handler.NewPlan(s.services.Plan)
	s.router.Get("/api/v1/plans", plan.List)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.pool))
		r.Use(s.auditLogger.Middleware)

		// Billing
		billing := handler.NewBilling(s.services.Billing, s.services.Subscription, s.services.Payment)
		r.Get("/billing/subscription", billing.Subscription)
		r.Post("/billing/trial", billing.StartTrial)
		r.Post("/billing/upgrade", billing.Upgrade)
		r.Get("/billing/upgrade/preview", billing.PreviewUpgrade)
		r.Post("/billing/verify", billing.Verify)
		r.Get("/billing/payments", billing.Payments)

		// Notifications
		notification := handler.NewNotification(s.services.Notification)
		r.Get("/notifications", notification.List)
		r.Post("/notifications/{id}/read", notification.MarkRead)

		// Audit logs
		audit := handler.NewAudit(s.pool)
		r.Get("/audit-logs", audit.List)

		// Posts
		post := handler.NewPost(s.services.Post)
		r.Get("/posts", post.List)
		r.Post("/posts", post.Create)
		r.Get("/posts/{id}", post.Get)
		r.Put("/posts/{id}", post.Update)
		r.Delete("/posts/{id}", post.Delete)

		// Dashboard
		dashboard := handler.NewDashboard(s.services.Dashboard)
		r.Get("/dashboard/stats", dashboard.Stats)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close shuts down background workers owned by the server.
func (s *Server) Close() {
	s.auditLogger.Close()
}
