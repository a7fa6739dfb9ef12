// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains. Routes are
// split into the public read surface and the authenticated creator API.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"scapes/internal/handlers"
	"scapes/internal/metrics"
	"scapes/internal/middleware"
)

// Check reports whether a backing service is reachable.
type Check func(ctx context.Context) error

// Deps are the handler groups and cross-cutting pieces the router wires.
// Metrics, RateLimiter and Checks may be nil.
type Deps struct {
	Editor      *handlers.Editor
	Library     *handlers.Library
	Public      *handlers.Public
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	JWTSecret   []byte
	Checks      map[string]Check
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(d.Checks))

	// Public read surface.
	r.Get("/s/{id}", d.Public.View)

	// Creator API.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireCreator(d.JWTSecret))
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Middleware)
		}
		r.Use(middleware.NoStore)

		r.Route("/scapes", func(r chi.Router) {
			r.Get("/", d.Library.List)
			r.Get("/title-check", d.Library.TitleCheck)
			r.Delete("/{id}", d.Library.Delete)
			r.Get("/{id}/history", d.Library.History)
		})

		r.Post("/editor", d.Editor.Open)
		r.Route("/editor/{sid}", func(r chi.Router) {
			r.Get("/", d.Editor.Get)
			r.Delete("/", d.Editor.Discard)
			r.Get("/ws", d.Editor.Stream)
			r.Patch("/", d.Editor.Patch)

			r.Post("/widgets", d.Editor.AddWidget)
			r.Post("/move", d.Editor.Move)
			r.Delete("/widgets/{wid}", d.Editor.RemoveWidget)
			r.Post("/widgets/{wid}/feature", d.Editor.ToggleFeature)
			r.Put("/widgets/{wid}/channel", d.Editor.SetChannel)
			r.Put("/widgets/{wid}/caption", d.Editor.SetCaption)
			r.Put("/widgets/{wid}/data", d.Editor.SetData)

			r.Post("/save", d.Editor.Save)
			r.Post("/publish", d.Editor.Publish)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler runs every check with a short timeout and reports 503 if
// any fails.
func readyHandler(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				slog.Warn("readiness check failed", "check", name, "error", err)
				results[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"ready": status == http.StatusOK, "checks": results})
	}
}
