package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/castplay/internal/domain"
	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
)

const maxPlayBody = 4 << 10

type playRequest struct {
	Track  string `json:"track"`
	Device string `json:"device"`
}

type playResponse struct {
	Status   string `json:"status"`
	PlayID   string `json:"play_id"`
	Track    string `json:"track"`
	Device   string `json:"device"`
	TrackURL string `json:"track_url"`
	Attempts int    `json:"attempts"`
}

// Play casts a track on a device. The device may be omitted when exactly
// one device is configured.
func Play(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPlayBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Track = strings.TrimSpace(req.Track)
		req.Device = strings.TrimSpace(req.Device)

		if req.Track == "" {
			writeError(w, http.StatusBadRequest, "Invalid track name")
			return
		}
		if req.Device == "" {
			if d.Registry.Count() != 1 {
				writeError(w, http.StatusBadRequest, "Device is required")
				return
			}
			req.Device = d.Registry.Names()[0]
		}

		ack, err := d.Player.Play(r.Context(), req.Track, req.Device)
		if err != nil {
			status, detail := playFailure(err)
			writeError(w, status, detail)
			return
		}

		writeJSON(w, http.StatusOK, playResponse{
			Status:   "ok",
			PlayID:   ack.PlayID,
			Track:    ack.Track,
			Device:   ack.Device,
			TrackURL: ack.URL,
			Attempts: ack.Attempts,
		})
	}
}

// playFailure maps a playback error to its HTTP status and client message
func playFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidTrack):
		return http.StatusBadRequest, "Invalid track name"
	case errors.Is(err, domain.ErrUnknownDevice):
		return http.StatusNotFound, "Unknown device"
	case errors.Is(err, domain.ErrTrackNotFound):
		return http.StatusNotFound, "Track not found"
	case errors.Is(err, domain.ErrDeviceUnready):
		return http.StatusServiceUnavailable, "Cast device not ready"
	case errors.Is(err, domain.ErrPlaybackFailed):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "Playback error"
	}
}
