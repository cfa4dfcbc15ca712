package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/castplay/internal/logger"
)

type tracksResponse struct {
	Tracks []string `json:"tracks"`
}

// ListTracks lists the playable tracks, read fresh from the media directory.
func ListTracks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracks, err := d.Media.List()
		if err != nil {
			d.Logger.Error("failed to list tracks",
				logger.String("dir", d.Media.Dir()),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to list tracks")
			return
		}
		writeJSON(w, http.StatusOK, tracksResponse{Tracks: tracks})
	}
}
