package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/plastinin/schoolmigrate/internal/adapter/http/handler"
	httpmiddleware "github.com/plastinin/schoolmigrate/internal/adapter/http/middleware"
	"go.uber.org/zap"
)

// NewRouter создаёт и настраивает HTTP роутер
func NewRouter(
	sessionHandler *handler.SessionHandler,
	templateHandler *handler.TemplateHandler,
	importRunHandler *handler.ImportRunHandler,
	healthHandler *handler.HealthHandler,
	uploadsPerMinute int,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()
	limiter := httpmiddleware.NewRateLimiter(uploadsPerMinute, logger)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Health check (вне версионирования API)
	r.Get("/health", healthHandler.Check)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Templates
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", templateHandler.List)
			r.Get("/{type}/download", templateHandler.Download)
		})

		// Wizard sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Open)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Close)
				r.Put("/type", sessionHandler.SelectType)
				r.Get("/template", sessionHandler.Template)
				r.With(limiter.Handler).Post("/file", sessionHandler.Upload)
				r.Put("/mapping", sessionHandler.SetMapping)
				r.Post("/next", sessionHandler.Next)
				r.Post("/back", sessionHandler.Back)
				r.Put("/dry-run", sessionHandler.SetDryRun)
				r.With(limiter.Handler).Post("/import", sessionHandler.Import)
				r.Post("/finish", sessionHandler.Finish)
			})
		})

		// Import history
		r.Route("/imports", func(r chi.Router) {
			r.Get("/", importRunHandler.List)
			r.Get("/{id}", importRunHandler.GetByID)
		})
	})

	return r
}
