package router

import (
	"net/http"
	"time"

	"trailhub/internal/broadcast"
	"trailhub/internal/handlers/web"
	"trailhub/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Trips    *web.TripHandler
	Comments *web.CommentHandler
	Social   *web.SocialHandler
	Health   *web.HealthHandler
	Hub      *broadcast.Hub
}

// New configures all HTTP routes and returns the main handler.
func New(h *Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(time.Second))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.Health.Health)

	// Live broadcast subscriptions, e.g. /ws?topics=updates,achievements.
	r.Get("/ws", h.Hub.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/trips", func(r chi.Router) {
			r.Post("/", h.Trips.CreateTrip)
			r.Get("/{tripID}", h.Trips.GetTrip)
			r.Post("/{tripID}/updates", h.Trips.AddUpdate)
			r.Post("/{tripID}/comments", h.Comments.AddComment)
			r.Post("/{tripID}/polyline/recompute", h.Trips.RecomputePolyline)
		})

		r.Post("/friend-requests/{requestID}/accept", h.Social.AcceptFriendRequest)
		r.Post("/follows", h.Social.Follow)
	})

	return r
}
