package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
)

type statusResponse struct {
	Status string `json:"status"`
}

func Root(_ deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}
