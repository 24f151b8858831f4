package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/skilltrade/backend/internal/middleware"
	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/services"
	"github.com/skilltrade/backend/internal/web"
)

// PageHandler serves the HTML side of the site. Forms post back to the
// same paths and redirect on success.
type PageHandler struct {
	profiles       *services.ProfileService
	posts          *services.PostService
	feed           *services.FeedService
	messaging      *services.MessagingService
	images         *services.ImageService
	renderer       *web.Renderer
	maxUploadBytes int64
}

func NewPageHandler(
	profiles *services.ProfileService,
	posts *services.PostService,
	feed *services.FeedService,
	messaging *services.MessagingService,
	images *services.ImageService,
	renderer *web.Renderer,
	maxUploadMB int64,
) *PageHandler {
	return &PageHandler{
		profiles:       profiles,
		posts:          posts,
		feed:           feed,
		messaging:      messaging,
		images:         images,
		renderer:       renderer,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}
}

// page builds the common template data, including the signed-in profile
// when there is one.
func (h *PageHandler) page(ctx context.Context, r *http.Request, title string) (web.Page, error) {
	p := web.Page{Title: title, Path: r.URL.Path}

	prof, err := h.profiles.Get(ctx, middleware.GetSessionID(r.Context()))
	if errors.Is(err, services.ErrNoSession) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	pub := prof.Public()
	p.Profile = &pub
	return p, nil
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, fill func(context.Context, *web.Page) error) {
	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	p, err := h.page(ctx, r, title)
	if err == nil && fill != nil {
		err = fill(ctx, &p)
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.renderer.Render(w, status, name, p)
}

func (h *PageHandler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("path", r.URL.Path).Str("session_id", middleware.GetSessionID(r.Context())).Msg("Page failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Static returns a handler for a page with no data of its own.
func (h *PageHandler) Static(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, name, title, nil)
	}
}

func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	log.Warn().Str("path", r.URL.Path).Msg("Page not found")
	h.render(w, r, http.StatusNotFound, "not_found", "Page not found", nil)
}

func (h *PageHandler) CreateProfileForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "create_profile", "Create profile", nil)
}

func (h *PageHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		http.Error(w, "File too large or invalid form data", http.StatusBadRequest)
		return
	}

	req := models.CreateProfileRequest{
		Name:          r.PostFormValue("name"),
		Email:         r.PostFormValue("email"),
		Password:      r.PostFormValue("password"),
		SkillsIHave:   splitSkills(r.PostFormValue("skills")),
		WhatImGoodAt:  r.PostFormValue("whatImGoodAt"),
		Location:      r.PostFormValue("location"),
		PreferredWork: models.WorkPreference(r.PostFormValue("preferredWork")),
	}

	errs := req.Validate()
	if picture, err := h.pictureFromForm(r); err != nil {
		errs["profilePicture"] = "Profile picture must be a JPEG, PNG, GIF or WebP image"
	} else {
		req.ProfilePicture = picture
	}

	if len(errs) > 0 {
		h.render(w, r, http.StatusBadRequest, "create_profile", "Create profile", func(_ context.Context, p *web.Page) error {
			p.Errors = errs
			p.Form = formValues(r.PostForm, "name", "email", "skills", "whatImGoodAt", "location", "preferredWork")
			return nil
		})
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if _, err := h.profiles.Create(ctx, middleware.GetSessionID(r.Context()), &req); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/feed", http.StatusSeeOther)
}

func (h *PageHandler) Feed(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "feed", "Feed", func(ctx context.Context, p *web.Page) error {
		feed, err := h.feed.Feed(ctx, middleware.GetSessionID(r.Context()))
		p.Feed = feed
		return err
	})
}

func (h *PageHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "postId"), 10, 64)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if _, err := h.feed.ToggleLike(ctx, middleware.GetSessionID(r.Context()), postID); err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			h.NotFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/feed#post-"+strconv.FormatInt(postID, 10), http.StatusSeeOther)
}

func (h *PageHandler) CreatePostForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "create_post", "Create post", nil)
}

func (h *PageHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		http.Error(w, "File too large or invalid form data", http.StatusBadRequest)
		return
	}

	req := models.CreatePostRequest{
		Type:            models.PostKind(r.PostFormValue("type")),
		Title:           r.PostFormValue("title"),
		Description:     r.PostFormValue("description"),
		Skills:          splitSkills(r.PostFormValue("skills")),
		ExperienceLevel: models.ExperienceLevel(r.PostFormValue("experienceLevel")),
		Availability:    models.Availability(r.PostFormValue("availability")),
		Deadline:        r.PostFormValue("deadline"),
		WorkOffered:     r.PostFormValue("workOffered"),
		WorkDemanded:    r.PostFormValue("workDemanded"),
	}

	errs := req.Validate()
	if len(errs) == 0 {
		media, err := h.uploadMedia(r)
		if err != nil {
			if !errors.Is(err, services.ErrInvalidImage) {
				h.serverError(w, r, err)
				return
			}
			errs["media"] = "Media must be JPEG, PNG, GIF or WebP images"
		}
		req.Media = media
	}

	if len(errs) > 0 {
		h.render(w, r, http.StatusBadRequest, "create_post", "Create post", func(_ context.Context, p *web.Page) error {
			p.Errors = errs
			p.Form = formValues(r.PostForm, "type", "title", "description", "skills",
				"experienceLevel", "availability", "deadline", "workOffered", "workDemanded")
			return nil
		})
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if _, err := h.posts.Create(ctx, middleware.GetSessionID(r.Context()), &req); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/feed", http.StatusSeeOther)
}

func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "profile", "Profile", func(ctx context.Context, p *web.Page) error {
		posts, err := h.posts.List(ctx, middleware.GetSessionID(r.Context()))
		p.Posts = posts
		return err
	})
}

func (h *PageHandler) EditProfileForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "edit_profile", "Edit profile", func(_ context.Context, p *web.Page) error {
		if p.Profile != nil {
			p.Form = profileForm(p.Profile)
		}
		return nil
	})
}

func (h *PageHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		http.Error(w, "File too large or invalid form data", http.StatusBadRequest)
		return
	}

	req := updateRequestFromForm(r.PostForm)
	errs := req.Validate()

	picture, err := h.pictureFromForm(r)
	if err != nil {
		errs["profilePicture"] = "Profile picture must be a JPEG, PNG, GIF or WebP image"
	} else if picture != "" {
		req.ProfilePicture = &picture
	}

	if len(errs) > 0 {
		h.render(w, r, http.StatusBadRequest, "edit_profile", "Edit profile", func(_ context.Context, p *web.Page) error {
			p.Errors = errs
			p.Form = formValues(r.PostForm, "name", "email", "bio", "location", "skills",
				"workWanted", "experienceLevel", "availability", "preferredWork")
			return nil
		})
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if _, err := h.profiles.Update(ctx, middleware.GetSessionID(r.Context()), req); err != nil {
		if errors.Is(err, services.ErrNoSession) {
			http.Redirect(w, r, middleware.CreateProfilePath, http.StatusSeeOther)
			return
		}
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *PageHandler) Messages(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())
	search := r.URL.Query().Get("search")

	h.render(w, r, http.StatusOK, "messages", "Messages", func(_ context.Context, p *web.Page) error {
		if id := r.URL.Query().Get("c"); id != "" {
			detail, err := h.messaging.Get(sessionID, id)
			if err != nil && !errors.Is(err, services.ErrConversationNotFound) {
				return err
			}
			p.Active = detail
		}
		p.Search = search
		p.Conversations = h.messaging.List(sessionID, search)
		return nil
	})
}

func (h *PageHandler) OpenConversation(w http.ResponseWriter, r *http.Request) {
	req := models.OpenConversationRequest{
		UserID:   r.PostFormValue("userId"),
		UserName: r.PostFormValue("userName"),
		Avatar:   r.PostFormValue("avatar"),
	}
	if errs := req.Validate(); len(errs) > 0 {
		http.Redirect(w, r, "/messages", http.StatusSeeOther)
		return
	}

	conv := h.messaging.Open(middleware.GetSessionID(r.Context()), &req)
	http.Redirect(w, r, "/messages?c="+url.QueryEscape(conv.ID), http.StatusSeeOther)
}

func (h *PageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	_, err := h.messaging.Send(middleware.GetSessionID(r.Context()), conversationID, r.PostFormValue("content"))
	if errors.Is(err, services.ErrConversationNotFound) {
		h.NotFound(w, r)
		return
	}
	// An empty message just re-shows the conversation.
	http.Redirect(w, r, "/messages?c="+url.QueryEscape(conversationID), http.StatusSeeOther)
}

func (h *PageHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := h.profiles.SignOut(ctx, middleware.GetSessionID(r.Context())); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// parseForm accepts both multipart and urlencoded bodies.
func (h *PageHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1024*1024)
	err := r.ParseMultipartForm(h.maxUploadBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// pictureFromForm returns the uploaded profile picture as a data URL, or ""
// when none was sent.
func (h *PageHandler) pictureFromForm(r *http.Request) (string, error) {
	file, _, err := r.FormFile("profilePicture")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()
	return services.DataURL(file, h.maxUploadBytes)
}

func (h *PageHandler) uploadMedia(r *http.Request) ([]string, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var urls []string
	for _, fh := range r.MultipartForm.File["media"] {
		u, err := h.uploadOne(middleware.GetSessionID(r.Context()), fh)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (h *PageHandler) uploadOne(sessionID string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	res, err := h.images.Upload(sessionID, f)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

func splitSkills(raw string) []string {
	return models.CleanSkills(strings.Split(raw, ","))
}

func formValues(form url.Values, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f] = form.Get(f)
	}
	return out
}

func profileForm(p *models.PublicProfile) map[string]string {
	return map[string]string{
		"name":            p.Name,
		"email":           p.Email,
		"bio":             p.Bio,
		"location":        p.Location,
		"skills":          strings.Join(p.SkillsIHave, ", "),
		"workWanted":      p.WorkWanted,
		"experienceLevel": string(p.ExperienceLevel),
		"availability":    string(p.Availability),
		"preferredWork":   string(p.PreferredWork),
	}
}

// updateRequestFromForm sets only the fields present in the submitted form.
func updateRequestFromForm(form url.Values) *models.UpdateProfileRequest {
	req := &models.UpdateProfileRequest{}
	str := func(key string) *string {
		if _, ok := form[key]; !ok {
			return nil
		}
		v := form.Get(key)
		return &v
	}

	req.Name = str("name")
	req.Email = str("email")
	req.Bio = str("bio")
	req.Location = str("location")
	req.WorkWanted = str("workWanted")
	if v := str("skills"); v != nil {
		skills := splitSkills(*v)
		req.SkillsOffered = &skills
	}
	if v := str("experienceLevel"); v != nil {
		e := models.ExperienceLevel(*v)
		req.ExperienceLevel = &e
	}
	if v := str("availability"); v != nil {
		a := models.Availability(*v)
		req.Availability = &a
	}
	if v := str("preferredWork"); v != nil {
		pw := models.WorkPreference(*v)
		req.PreferredWork = &pw
	}
	return req
}
