package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Lixing-Zhang/foodstand-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the handlers and options NewRouter wires together.
type RouterConfig struct {
	Health      *HealthHandler
	Ingredients *IngredientHandler
	Menu        *MenuHandler
	Orders      *OrderHandler
	Reports     *ReportHandler

	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", cfg.Health.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", cfg.Ingredients.List)
			r.Post("/", cfg.Ingredients.Create)
			r.Get("/{id}", cfg.Ingredients.Get)
			r.Put("/{id}", cfg.Ingredients.Update)
			r.Delete("/{id}", cfg.Ingredients.Delete)
			r.Post("/{id}/restock", cfg.Ingredients.Restock)
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", cfg.Menu.List)
			r.Post("/", cfg.Menu.Create)
			r.Get("/availability", cfg.Menu.Availability)
			r.Get("/{id}", cfg.Menu.Get)
			r.Get("/{id}/details", cfg.Menu.Details)
			r.Put("/{id}", cfg.Menu.Update)
			r.Delete("/{id}", cfg.Menu.Delete)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", cfg.Orders.List)
			r.Post("/", cfg.Orders.CreateDirect)
			r.Post("/menu", cfg.Orders.CreateFromMenu)
			r.Get("/{id}", cfg.Orders.Get)
			r.Patch("/{id}/status", cfg.Orders.UpdateStatus)
		})

		r.Get("/reports/summary", cfg.Reports.Summary)
		r.Get("/clock", cfg.Reports.Clock)
	})

	return r
}
