// Package server wires handlers, middleware and routes into one http.Handler.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teiftn/facture/auth"
	"github.com/teiftn/facture/httpx"
	"github.com/teiftn/facture/internal/handlers"
	"github.com/teiftn/facture/internal/models"
	"github.com/teiftn/facture/internal/services"
)

// New constructs the root handler with all routes and middlewares applied.
func New(db *gorm.DB, log *zap.Logger) http.Handler {
	// Sessions must refer to a user that still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	svc := services.NewInvoiceService(db)
	authHandler := handlers.NewAuthHandler(db, log)
	partnerHandler := handlers.NewPartnerHandler(db, log)
	invoiceHandler := handlers.NewInvoiceHandler(db, svc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware)

	// Health endpoints
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public endpoints
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/logout", authHandler.Logout)
	r.Post("/validate/rib", handlers.ValidateRIB)

	// Authenticated API
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/auth/me", authHandler.Me)

		r.Route("/partners", func(r chi.Router) {
			r.Get("/", partnerHandler.List)
			r.Post("/", partnerHandler.Create)
			r.Get("/{id}", partnerHandler.View)
			r.Put("/{id}", partnerHandler.Update)
			r.Delete("/{id}", partnerHandler.Delete)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", invoiceHandler.List)
			r.Post("/", invoiceHandler.Create)
			r.Get("/{id}", invoiceHandler.View)
			r.Put("/{id}", invoiceHandler.Update)
			r.Delete("/{id}", invoiceHandler.Delete)
			r.Post("/{id}/finalize", invoiceHandler.Finalize)
			r.Get("/{id}/xml", invoiceHandler.XML)
			r.Get("/{id}/qr", invoiceHandler.QR)
			r.Get("/{id}/totals", invoiceHandler.Totals)
			r.Get("/{id}/fields", invoiceHandler.Fields)
		})
	})

	return r
}

// requestLogger logs one line per request with status, duration and size.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
