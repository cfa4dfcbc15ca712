package handlers

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/castplay/internal/domain"
	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/castplay/internal/logger"
)

//go:embed dashboard.html
var dashboardHTML []byte

var (
	recentBounds = intBounds{def: 100, min: 1, max: 1000}
	topBounds    = intBounds{def: 10, min: 1, max: 100}
	daysBounds   = intBounds{def: 0, min: 1, max: 365}

	statsBounds = map[domain.Granularity]intBounds{
		domain.Day:   {def: 30, min: 1, max: 365},
		domain.Week:  {def: 12, min: 1, max: 52},
		domain.Month: {def: 12, min: 1, max: 36},
	}
)

func TelemetryHealth(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := d.Telemetry.Health(r.Context())
		status := http.StatusOK
		if !h.DatabaseConnected {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, h)
	}
}

func RecentEvents(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", recentBounds)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		events, err := d.Telemetry.RecentEvents(r.Context(), limit)
		if err != nil {
			telemetryFailure(w, d, "recent events", err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// Stats serves /telemetry/stats/{period} for daily, weekly and monthly.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := domain.ParseGranularity(chi.URLParam(r, "period"))
		if err != nil {
			writeError(w, http.StatusNotFound, "Unknown stats period")
			return
		}
		limit, err := queryInt(r, "limit", statsBounds[g])
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		stats, err := d.Telemetry.StatsByPeriod(r.Context(), g, limit)
		if err != nil {
			telemetryFailure(w, d, string(g)+" stats", err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// TopTracks ranks tracks; without days the whole history is used.
func TopTracks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", topBounds)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		days, err := queryInt(r, "days", daysBounds)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		tracks, err := d.Telemetry.TopTracks(r.Context(), limit, days)
		if err != nil {
			telemetryFailure(w, d, "top tracks", err)
			return
		}
		writeJSON(w, http.StatusOK, tracks)
	}
}

func Dashboard(_ deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(dashboardHTML)
	}
}

func telemetryFailure(w http.ResponseWriter, d deps.Deps, what string, err error) {
	d.Logger.Error("telemetry query failed",
		logger.String("query", what),
		logger.Error(err))
	writeError(w, http.StatusInternalServerError, "Failed to read telemetry")
}
