package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
)

type componentStatus struct {
	OK           bool   `json:"ok"`
	DevicesCount *int   `json:"devices_loaded,omitempty"`
	TracksCount  *int   `json:"tracks_available,omitempty"`
	TotalEvents  *int64 `json:"total_events,omitempty"`
	LoadedAt     string `json:"loaded_at,omitempty"`
	Dir          string `json:"dir,omitempty"`
	Mode         string `json:"mode,omitempty"`
	Impact       string `json:"impact,omitempty"`
	Error        string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"devices":   checkDevices(d),
			"media":     checkMedia(d),
			"telemetry": checkTelemetry(r.Context(), d),
			"redis":     checkRedis(r.Context(), d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode: without devices or media nothing can play (critical);
// telemetry or redis problems only lose history (degraded).
func determineMode(components map[string]componentStatus) string {
	for _, name := range []string{"devices", "media"} {
		if c, ok := components[name]; ok && !c.OK {
			return "critical"
		}
	}
	if c, ok := components["telemetry"]; ok && !c.OK {
		return "degraded"
	}
	if c, ok := components["redis"]; ok && !c.OK && c.Mode != "disabled" {
		return "degraded"
	}
	return "operational"
}

func checkDevices(d deps.Deps) componentStatus {
	if d.Registry == nil {
		return componentStatus{OK: false, Error: "registry not initialized"}
	}
	n := d.Registry.Count()
	return componentStatus{
		OK:           n > 0,
		DevicesCount: &n,
		LoadedAt:     d.Registry.LoadedAt().UTC().Format(time.RFC3339),
	}
}

func checkMedia(d deps.Deps) componentStatus {
	tracks, err := d.Media.List()
	if err != nil {
		return componentStatus{OK: false, Dir: d.Media.Dir(), Error: err.Error()}
	}
	n := len(tracks)
	return componentStatus{OK: true, Dir: d.Media.Dir(), TracksCount: &n}
}

func checkTelemetry(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	h := d.Telemetry.Health(ctx)
	if !h.DatabaseConnected {
		return componentStatus{OK: false, Impact: "history-not-recorded", Error: h.Message}
	}
	total := h.TotalEvents
	return componentStatus{OK: true, TotalEvents: &total}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "device-activity-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "device-activity-stale",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "device-activity-enabled",
	}
}
