package handlers

import (
	"net/http"
	"os"

	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz reports ready once devices are loaded, the media directory is
// readable and the telemetry database answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reason := notReadyReason(r, d); reason != "" {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Reason: reason})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}

func notReadyReason(r *http.Request, d deps.Deps) string {
	if d.Registry == nil || d.Registry.Count() == 0 {
		return "no devices configured"
	}
	if info, err := os.Stat(d.Media.Dir()); err != nil || !info.IsDir() {
		return "media directory unavailable"
	}
	if h := d.Telemetry.Health(r.Context()); !h.DatabaseConnected {
		return "telemetry database unavailable"
	}
	return ""
}
