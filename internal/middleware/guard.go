package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/services"
)

// CreateProfilePath is where sessions without a profile are sent.
const CreateProfilePath = "/create-profile"

// ProfileLookup is satisfied by services.ProfileService.
type ProfileLookup interface {
	Get(ctx context.Context, sessionID string) (*models.Profile, error)
}

// RequireProfilePage redirects sessions without a signed-in profile to the
// create-profile page.
func RequireProfilePage(profiles ProfileLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := hasProfile(r, profiles)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !ok {
				http.Redirect(w, r, CreateProfilePath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireProfileAPI answers 401 with a redirect hint instead.
func RequireProfileAPI(profiles ProfileLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := hasProfile(r, profiles)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load session"))
				return
			}
			if !ok {
				writeJSON(w, http.StatusUnauthorized, models.NewRedirectResponse("Profile required", CreateProfilePath))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasProfile(r *http.Request, profiles ProfileLookup) (bool, error) {
	_, err := profiles.Get(r.Context(), GetSessionID(r.Context()))
	if errors.Is(err, services.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load profile for guard")
		return false, err
	}
	return true, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
