package http

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orderfellow/orderfellow/internal/config"
	"github.com/orderfellow/orderfellow/internal/middleware"
	"github.com/orderfellow/orderfellow/internal/port/cache"
)

// MountRoutes registers all API routes on the given chi router. The webhook
// group and the company order queries share the same credential gate; the
// tracking endpoint is public by design.
func MountRoutes(r chi.Router, h *Handlers, src middleware.CredentialSource, c cache.Cache, rateCfg config.Rate, credentialTTL time.Duration) {
	auth := middleware.WebhookAuth(src, c, credentialTTL)

	createLimiter := middleware.NewRateLimiter(rateCfg.CreatePerMinute, rateCfg.Burst)
	updateLimiter := middleware.NewRateLimiter(rateCfg.UpdatePerMinute, rateCfg.Burst)
	createLimiter.StartCleanup(rateCfg.CleanupInterval, rateCfg.MaxIdleTime)
	updateLimiter.StartCleanup(rateCfg.CleanupInterval, rateCfg.MaxIdleTime)

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(auth)
		r.With(createLimiter.Handler).Post("/order-received", h.HandleOrderReceived)
		r.With(updateLimiter.Handler).Post("/status-update", h.HandleStatusUpdate)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public customer tracking
		r.Get("/track", h.TrackOrder)

		// Company order queries, authenticated with the same webhook secret
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/stats", h.OrderStats)
			r.Get("/orders/{id}", h.GetOrder)
		})
	})

	r.Get("/health", h.Health)
	if h.Hub != nil {
		r.Get("/ws", h.Hub.HandleWS)
	}
}
