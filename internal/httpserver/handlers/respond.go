package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// intBounds describes an integer query parameter
type intBounds struct {
	def, min, max int
}

// queryInt reads an optional integer query parameter within bounds.
// Missing or empty values yield b.def.
func queryInt(r *http.Request, key string, b intBounds) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return b.def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	if v < b.min || v > b.max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, b.min, b.max)
	}
	return v, nil
}
