package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/castplay/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/castplay/internal/httpserver/mw"
)

func init() { Register(registerCatalog) }

func registerCatalog(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Root(d))

	api := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	api.Get("/list", handlers.ListTracks(d))
	api.Get("/listdevices", handlers.ListDevices(d))
	api.Get("/devices/active", handlers.ActiveDevices(d))
	api.Get("/devices/{name}/last", handlers.LastPlay(d))
}
