// Package shield provides reusable HTTP edge middleware for the atelier
// service. It consolidates security headers, body limits, request tracing,
// rate limiting, and maintenance mode into a single importable package.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxFormBody(64 * 1024))
//	r.Use(shield.TraceID)
//	r.Use(shield.NewRateLimiter(db).Middleware)
//
// Or apply the default edge stack in one call:
//
//	stack, mm := shield.EdgeStack(db)
//	mm.StartReloader(done)
//	for _, mw := range stack {
//	    r.Use(mw)
//	}
package shield

import (
	"database/sql"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// EdgeStack returns the middleware stack for a publicly exposed instance.
// Middleware is ordered: Maintenance → SecurityHeaders → MaxFormBody →
// TraceID → RateLimiter. The returned MaintenanceMode handle allows callers
// to set a custom page and call StartReloader. Health checks (/health)
// bypass maintenance.
func EdgeStack(db *sql.DB) ([]func(http.Handler) http.Handler, *MaintenanceMode) {
	rl := NewRateLimiter(db)
	mm := NewMaintenanceMode(db, "/health", "/static/")
	return []func(http.Handler) http.Handler{
		mm.Middleware,
		SecurityHeaders(DefaultHeaders()),
		MaxFormBody(64 * 1024),
		TraceID,
		rl.Middleware,
	}, mm
}

// BaseStack returns the stack without the DB-backed middlewares. Suitable
// for instances that sit behind a trusted proxy or run in local dev.
func BaseStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders(DefaultHeaders()),
		MaxFormBody(64 * 1024),
		TraceID,
	}
}
