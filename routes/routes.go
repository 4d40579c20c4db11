package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dosada05/promotion-results/handlers"
)

type Handlers struct {
	Results       *handlers.ResultsHandler
	Events        *handlers.EventHandler
	Competitors   *handlers.CompetitorHandler
	Championships *handlers.ChampionshipHandler
	WebSocket     *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, allowedOrigins []string, gatherer prometheus.Gatherer) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.Get("/ws/announcements", h.WebSocket.ServeAnnouncements)

	router.Route("/events/{eventID}", func(r chi.Router) {
		r.Get("/", h.Events.GetEvent)
		r.Post("/results", h.Results.SubmitEventResults)
	})

	router.Route("/competitors/{competitorID}", func(r chi.Router) {
		r.Get("/", h.Competitors.GetCompetitor)
		r.Get("/history", h.Competitors.GetHistory)
	})

	router.Get("/championships/{championshipID}", h.Championships.GetChampionship)
}
