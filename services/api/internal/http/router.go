package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/md-ataur/watch-redux-server/services/api/internal/http/handlers"
	"github.com/md-ataur/watch-redux-server/shared/pkg/metrics"
)

type Handlers struct {
	Products *handlers.ProductsHandler
	Users    *handlers.UsersHandler
	Orders   *handlers.OrdersHandler
	Payments *handlers.PaymentsHandler
}

type Options struct {
	Service     string
	CORSOrigins []string
	Log         zerolog.Logger
}

func NewRouter(h *Handlers, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(opts.Log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", d).
			Msg("request")
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware(opts.Service))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", handlers.Health)
	r.Get("/", handlers.Root)

	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.Products.Create)
		r.Get("/", h.Products.List)
		r.Get("/{id}", h.Products.Get)
		r.Delete("/{id}", h.Products.Delete)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.Users.Create)
		r.Put("/", h.Users.Upsert)
		r.Put("/admin", h.Users.Promote)
		r.Get("/{email}", h.Users.AdminStatus)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.Orders.Create)
		r.Get("/", h.Orders.List)
		r.Post("/byemail", h.Orders.ByEmail)
		r.Put("/{id}", h.Orders.UpdateStatus)
		r.Delete("/{id}", h.Orders.Delete)
	})

	r.Post("/create-payment-intent", h.Payments.CreateIntent)
	return r
}
