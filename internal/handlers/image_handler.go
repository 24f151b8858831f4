package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/services"
)

type ImageHandler struct {
	imageService *services.ImageService
	maxSizeMB    int64
}

func NewImageHandler(imageService *services.ImageService, maxSizeMB int64) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		maxSizeMB:    maxSizeMB,
	}
}

func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxSizeMB * 1024 * 1024); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("File too large or invalid form data"))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("No image file provided"))
		return
	}
	defer file.Close()

	response, err := h.imageService.Upload(sessionID, file)
	if err != nil {
		if errors.Is(err, services.ErrInvalidImage) {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid image type. Allowed: JPEG, PNG, GIF, WebP"))
			return
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to upload image")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to upload image"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(response))
}

func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	err := h.imageService.Delete(sessionID, chi.URLParam(r, "imageId"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrImageNotFound):
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Image not found"))
		case errors.Is(err, services.ErrNotImageOwner):
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not authorized to delete this image"))
		default:
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete image"))
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Image deleted successfully"}))
}
