package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/services"
)

type PostHandler struct {
	posts *services.PostService
	feed  *services.FeedService
}

func NewPostHandler(posts *services.PostService, feed *services.FeedService) *PostHandler {
	return &PostHandler{posts: posts, feed: feed}
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	var req models.CreatePostRequest
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

	post, err := h.posts.Create(ctx, sessionID, &req)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to create post")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create post"))
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(post))
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	posts, err := h.posts.List(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to list posts")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list posts"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(posts))
}

func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	feed, err := h.feed.Feed(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load feed")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load feed"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(feed))
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionOrReject(w, r)
	if !ok {
		return
	}

	postID, err := strconv.ParseInt(chi.URLParam(r, "postId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid post ID"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	post, err := h.feed.ToggleLike(ctx, sessionID, postID)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Post not found"))
			return
		}
		log.Error().Err(err).Str("session_id", sessionID).Int64("post_id", postID).Msg("Failed to toggle like")
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update like"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(post))
}
