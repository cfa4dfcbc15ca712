package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/castplay/internal/logger"
	redisstore "github.com/MrSnakeDoc/castplay/internal/store/redis"
)

type devicesResponse struct {
	Devices []string `json:"devices"`
}

func ListDevices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, devicesResponse{Devices: d.Registry.Names()})
	}
}

// ActiveDevices lists devices with a play recorded in the activity store.
func ActiveDevices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Activity == nil {
			writeError(w, http.StatusServiceUnavailable, "Activity tracking disabled")
			return
		}
		names, err := d.Activity.ActiveDevices(r.Context())
		if err != nil {
			d.Logger.Warn("failed to list active devices", logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "Activity store unavailable")
			return
		}
		writeJSON(w, http.StatusOK, devicesResponse{Devices: names})
	}
}

// LastPlay returns the most recent play on a device.
func LastPlay(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Activity == nil {
			writeError(w, http.StatusServiceUnavailable, "Activity tracking disabled")
			return
		}

		name := chi.URLParam(r, "name")
		if _, ok := d.Registry.Lookup(name); !ok {
			writeError(w, http.StatusNotFound, "Unknown device")
			return
		}

		ev, err := d.Activity.LastPlay(r.Context(), name)
		switch {
		case errors.Is(err, redisstore.ErrNoActivity):
			writeError(w, http.StatusNotFound, "No activity recorded for device")
		case err != nil:
			d.Logger.Warn("failed to read last play",
				logger.String("device", name),
				logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, "Activity store unavailable")
		default:
			writeJSON(w, http.StatusOK, ev)
		}
	}
}
