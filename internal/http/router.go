package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sarawakparks/park-reservations/internal/observability"
	"github.com/sarawakparks/park-reservations/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(rl))
	r.Use(IdempotencyKeyMiddleware)

	r.Get("/v1/parks", h.ListParks)
	r.Get("/v1/parks/{id}/availability", h.Availability)
	r.Get("/v1/merchandise", h.ListMerchandise)

	r.Get("/v1/cart", h.GetCart)
	r.Post("/v1/cart/items", h.AddCartItem)
	r.Delete("/v1/cart", h.ClearCart)

	r.Post("/v1/checkout", h.Checkout)
	r.Get("/v1/orders/{id}", h.GetOrder)

	r.Get("/v1/tickets", h.ListTickets)
	r.Post("/v1/tickets/{id}/refund", h.RefundTicket)
	r.Post("/v1/tickets/{id}/cancel", h.CancelTicket)
	r.Post("/v1/tickets/{id}/reschedule", h.RescheduleTicket)

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
