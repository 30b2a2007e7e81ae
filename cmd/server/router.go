package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zengarden/zengarden-api/internal/api"
	apiMiddleware "github.com/zengarden/zengarden-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(apiMiddleware.Metrics(app.metrics))

	flowerHandler := api.NewFlowerHandler(app.flowerService)
	focusHandler := api.NewFocusHandler(app.focusService)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Focus session endpoints
			r.Post("/focus/start", focusHandler.StartSession)
			r.Post("/focus/{id}/complete", focusHandler.CompleteSession)
			r.Post("/focus/{id}/interrupt", focusHandler.InterruptSession)

			// Flower endpoints
			r.Post("/flowers/generate", flowerHandler.GenerateFlower)
			r.Get("/flowers", flowerHandler.ListFlowers)
			r.Get("/flowers/task/{id}", flowerHandler.GetTask)
			r.Post("/flowers/task/{id}/retry", flowerHandler.RetryTask)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		app.registry,
		promhttp.HandlerOpts{},
	))

	return r
}
