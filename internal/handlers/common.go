package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/skilltrade/backend/internal/middleware"
	"github.com/skilltrade/backend/internal/models"
)

// storeTimeout bounds a single request's trips to the key-value store.
const storeTimeout = 10 * time.Second

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func contextWithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

// sessionOrReject returns the request's session id, writing a 401 if the
// session middleware did not run.
func sessionOrReject(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := middleware.GetSessionID(r.Context())
	if sessionID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return "", false
	}
	return sessionID, true
}

func APINotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Not found"))
}
