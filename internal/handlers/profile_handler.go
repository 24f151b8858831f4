package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/services"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	var req models.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	prof, err := h.profiles.Create(ctx, sessionID, &req)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to create profile")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create profile"))
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(prof.Public()))
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	prof, err := h.profiles.Get(ctx, sessionID)
	if err != nil {
		h.writeLoadError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof.Public()))
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	prof, err := h.profiles.Update(ctx, sessionID, &req)
	if err != nil {
		h.writeLoadError(w, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(prof.Public()))
}

func (h *ProfileHandler) writeLoadError(w http.ResponseWriter, sessionID string, err error) {
	if errors.Is(err, services.ErrNoSession) {
		writeJSON(w, http.StatusUnauthorized, models.NewRedirectResponse("Profile required", "/create-profile"))
		return
	}
	log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load profile")
	writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load profile"))
}
