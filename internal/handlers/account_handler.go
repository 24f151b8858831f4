package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/services"
)

// AccountHandler covers the session as a whole: its state, signing out and
// wiping it.
type AccountHandler struct {
	profiles *services.ProfileService
	memory   []services.Forgetter
}

// NewAccountHandler takes the services whose in-memory session state is
// dropped along with the account.
func NewAccountHandler(profiles *services.ProfileService, memory ...services.Forgetter) *AccountHandler {
	return &AccountHandler{profiles: profiles, memory: memory}
}

func (h *AccountHandler) Session(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	state, err := h.profiles.State(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load session state")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load session"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(state))
}

// Logout forgets the profile but keeps the session's posts.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := h.profiles.SignOut(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to sign out")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to sign out"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"redirect": "/"}))
}

// DeleteAccount wipes everything the session has stored.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := h.profiles.ClearAccount(ctx, sessionID, h.memory...); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to clear account")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete account"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Account deleted successfully"}))
}
