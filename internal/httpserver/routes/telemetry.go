package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/castplay/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/castplay/internal/httpserver/mw"
)

func init() { Register(registerTelemetry) }

func registerTelemetry(r chi.Router, d deps.Deps) {
	r.Route("/telemetry", func(t chi.Router) {
		t.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		t.Get("/health", handlers.TelemetryHealth(d))
		t.Get("/events/recent", handlers.RecentEvents(d))
		// static segment wins over {period} in chi, order kept for readability
		t.Get("/stats/top-tracks", handlers.TopTracks(d))
		t.Get("/stats/{period}", handlers.Stats(d))
		t.Get("/dashboard", handlers.Dashboard(d))
	})
}
