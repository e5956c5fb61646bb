package fakeapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/inventorytracker/inventory-tracker/pkg/httputil"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

// RouterOptions tunes the middleware stack
type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      int // requests per minute per IP, 0 disables
}

// NewRouter builds the HTTP API of the reference inventory service
func NewRouter(store *Store, log *logger.Logger, opts RouterOptions) http.Handler {
	h := NewHandler(store, log)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", httputil.RequestIDHeader},
		ExposedHeaders: []string{httputil.RequestIDHeader},
		MaxAge:         300,
	}))
	if opts.RateLimit > 0 {
		r.Use(httprate.Limit(opts.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "inventory-service",
		})
	})

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Post("/", h.CreateItem)
		r.Get("/{id}", h.GetItem)
		r.Patch("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.DeleteItem)
		r.Get("/{id}/summary", h.Summary)
		r.Get("/{id}/packaging", h.ListPackaging)
		r.Post("/{id}/packaging", h.AddPackaging)
		r.Delete("/{id}/packaging/{pid}", h.DeletePackaging)
	})

	r.Route("/cases", func(r chi.Router) {
		r.Get("/", h.ListCases)
		r.Post("/", h.CreateCase)
		r.Patch("/{id}", h.MarkUsed)
		r.Delete("/{id}", h.DeleteCase)
	})

	return r
}
