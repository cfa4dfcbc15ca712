package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/castplay/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/castplay/internal/httpserver/mw"
)

func init() { Register(registerPlay) }

func registerPlay(r chi.Router, d deps.Deps) {
	r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.PlayRateBurst,
			RefillPerIPPerMin: d.PlayRatePerMin,
			MaxEntries:        4096,
			TrustProxy:        d.TrustProxy,
		}),
	).Post("/play", handlers.Play(d))
}
