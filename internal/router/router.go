package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appMiddleware "github.com/FACorreiaa/nizhal-navigator/app/middleware"
	_ "github.com/FACorreiaa/nizhal-navigator/docs"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/chat"
	"github.com/FACorreiaa/nizhal-navigator/internal/api/tools"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ChatHandler       *chat.Handler
	ToolsHandler      *tools.Handler
	AllowedOrigins    []string
	RequestsPerMinute int
	Logger            *slog.Logger
}

// SetupRouter builds the API routes. Server-wide middleware (request id, logging, recovery)
// is applied by the caller before mounting.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.RateLimit(cfg.RequestsPerMinute, cfg.Logger))

		r.Post("/chat", cfg.ChatHandler.Chat)

		r.Route("/tools", func(r chi.Router) {
			r.Get("/fun-fact", cfg.ToolsHandler.FunFact)
			r.Get("/map-link", cfg.ToolsHandler.MapLink)
		})
	})

	return r
}
