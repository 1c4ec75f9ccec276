package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/trade-tracker/internal/config"
	"github.com/crucial707/trade-tracker/internal/export"
	"github.com/crucial707/trade-tracker/internal/handlers"
	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/middleware"
)

// pinger reports whether the backing store is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

// deps is everything the router serves from.
type deps struct {
	Engine   *lifecycle.Engine
	Users    handlers.UserStore
	Store    pinger
	Exporter *export.Exporter
}

func newRouter(d deps, cfg config.Config) http.Handler {
	secret := []byte(cfg.JWTSecret)

	assetHandler := &handlers.AssetHandler{Engine: d.Engine}
	materialHandler := &handlers.MaterialHandler{Engine: d.Engine}
	auditHandler := &handlers.AuditHandler{Engine: d.Engine, Exporter: d.Exporter}
	reportHandler := &handlers.ReportHandler{Engine: d.Engine}
	userHandler := &handlers.UserHandler{Users: d.Users}
	authHandler := &handlers.AuthHandler{
		Users:  d.Users,
		Secret: secret,
		TTL:    time.Duration(cfg.JWTExpireHours) * time.Hour,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// Health, readiness and metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	r.Handle("/metrics", promhttp.Handler())

	// Auth
	authLimiter := middleware.AuthRateLimiter(cfg.AuthRatePerMinute)
	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Everything else needs a token
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(secret))

		r.Get("/users", userHandler.ListUsers)
		r.Get("/users/me", userHandler.Me)
		r.Get("/users/{id}", userHandler.GetUser)
		r.Put("/users/{id}/role", userHandler.SetRole)

		r.Route("/assets", func(r chi.Router) {
			r.Get("/", assetHandler.ListAssets)
			r.Post("/", assetHandler.CreateAsset)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", assetHandler.GetAsset)
				r.Patch("/", assetHandler.UpdateAsset)
				r.Delete("/", assetHandler.DeleteAsset)
				r.Post("/checkout", assetHandler.Checkout)
				r.Post("/checkin", assetHandler.Checkin)
				r.Put("/serial", assetHandler.UpdateSerial)
				r.Get("/history", assetHandler.CheckoutHistory)
				r.Get("/audit-logs", assetHandler.AuditTrail)
			})
		})

		r.Route("/materials", func(r chi.Router) {
			r.Get("/", materialHandler.ListMaterials)
			r.Post("/", materialHandler.CreateMaterial)
			r.Get("/{id}", materialHandler.GetMaterial)
			r.Patch("/{id}", materialHandler.UpdateMaterial)
			r.Delete("/{id}", materialHandler.DeleteMaterial)
			r.Post("/{id}/adjust", materialHandler.AdjustMaterial)
		})

		r.Get("/audit/recent", auditHandler.ListAudit)
		r.Post("/audit/export", auditHandler.Export)
		r.Get("/reports/tiers", reportHandler.Tiers)
	})

	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
