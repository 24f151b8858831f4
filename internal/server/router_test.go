package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/skilltrade/backend/internal/middleware"
	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/seed"
	"github.com/skilltrade/backend/internal/services"
	"github.com/skilltrade/backend/internal/storage"
	"github.com/skilltrade/backend/internal/web"
	ws "github.com/skilltrade/backend/internal/websocket"
)

type testServer struct {
	*httptest.Server
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	kv, err := storage.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	data, err := seed.Load()
	require.NoError(t, err)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	uploadDir := t.TempDir()
	images, err := services.NewImageService(uploadDir)
	require.NoError(t, err)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	local := services.NewLocalStore(kv)
	posts := services.NewPostService(local)

	srv := httptest.NewServer(NewRouter(Deps{
		Sessions:        appMiddleware.NewSessions("test-secret", time.Hour, false),
		Profiles:        services.NewProfileService(local),
		Posts:           posts,
		Feed:            services.NewFeedService(posts, data.FeedPosts(time.Now())),
		Messaging:       services.NewMessagingService(data, hub),
		Images:          images,
		Hub:             hub,
		Renderer:        renderer,
		AllowedOrigins:  []string{"*"},
		UploadDir:       uploadDir,
		MaxUploadSizeMB: 1,
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-hubDone
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testServer{Server: srv, client: client}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := s.client.PostForm(s.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, into interface{}) models.APIResponse {
	t.Helper()
	var env struct {
		models.APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if into != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env.APIResponse
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

var profileBody = map[string]interface{}{
	"name":          "Jane Doe",
	"email":         "jane@example.com",
	"password":      "hunter22",
	"skillsIHave":   []string{"Go", "Go", " Design ", "Writing", "SEO"},
	"whatImGoodAt":  "Backend services",
	"preferredWork": "online",
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body(t, resp))
}

func TestGuardedPagesRedirectWithoutProfile(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/feed", "/profile", "/edit-profile", "/messages"} {
		resp := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/create-profile", resp.Header.Get("Location"), path)
	}

	resp := s.do(t, http.MethodGet, "/create-post", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuardedAPIReturnsRedirectHint(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/feed", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env := decode(t, resp, nil)
	assert.Equal(t, "/create-profile", env.Redirect)
}

func TestProfileFlowOverAPI(t *testing.T) {
	s := newTestServer(t)

	var state models.SessionState
	decode(t, s.do(t, http.MethodGet, "/api/session", nil), &state)
	assert.False(t, state.IsAuthenticated)
	assert.NotEmpty(t, state.SessionID)

	resp := s.do(t, http.MethodPost, "/api/profile", map[string]interface{}{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decode(t, resp, nil)
	assert.Equal(t, "Validation failed", env.Error)

	var created models.PublicProfile
	resp = s.do(t, http.MethodPost, "/api/profile", profileBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &created)
	assert.Equal(t, []string{"Go", "Design", "Writing", "SEO"}, created.SkillsIHave)
	assert.Equal(t, []string{"Go", "Design", "Writing"}, created.TopSkills)

	decode(t, s.do(t, http.MethodGet, "/api/session", nil), &state)
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "Jane Doe", state.Profile.Name)

	resp = s.do(t, http.MethodPut, "/api/profile", map[string]interface{}{"availability": "sometimes"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/api/profile", map[string]interface{}{"email": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env = decode(t, resp, nil)
	fieldErrs, ok := env.Errors.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Email is required", fieldErrs["email"])
	var stored models.PublicProfile
	decode(t, s.do(t, http.MethodGet, "/api/profile", nil), &stored)
	assert.Equal(t, "jane@example.com", stored.Email)

	var updated models.PublicProfile
	resp = s.do(t, http.MethodPut, "/api/profile", map[string]interface{}{
		"bio":           "Ships things",
		"skillsOffered": []string{"Rust"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &updated)
	assert.Equal(t, "Ships things", updated.Bio)
	assert.Equal(t, []string{"Rust"}, updated.TopSkills)

	resp = s.do(t, http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, s.do(t, http.MethodGet, "/api/session", nil), &state)
	assert.False(t, state.IsAuthenticated)
}

func TestPostsAndFeedOverAPI(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/profile", profileBody).StatusCode)

	resp := s.do(t, http.MethodPost, "/api/posts", map[string]interface{}{"type": "offer_work"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var post models.Post
	resp = s.do(t, http.MethodPost, "/api/posts", map[string]interface{}{
		"type":         "request_work",
		"title":        "Need a logo",
		"description":  "For my bakery",
		"skills":       []string{"Baking"},
		"workDemanded": "Bread for a month",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &post)
	assert.Equal(t, models.PostSkillRequest, post.Type)
	assert.Equal(t, []string{"Baking"}, post.SkillsOffered)
	assert.Equal(t, "Need a logo\n\nFor my bakery\n\nWhat I'm offering in return: Bread for a month", post.Content)

	var feed []models.FeedPost
	decode(t, s.do(t, http.MethodGet, "/api/feed", nil), &feed)
	require.Len(t, feed, 8)
	assert.Equal(t, post.ID, feed[0].ID)

	var liked models.FeedPost
	resp = s.do(t, http.MethodPost, "/api/feed/1/like", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &liked)
	assert.True(t, liked.Liked)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/feed/999999/like", nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/feed/abc/like", nil).StatusCode)

	resp = s.do(t, http.MethodDelete, "/api/account", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []models.Post
	decode(t, s.do(t, http.MethodGet, "/api/posts", nil), &posts)
	assert.Empty(t, posts)
}

func TestConversationsOverAPI(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/profile", profileBody).StatusCode)

	var convs []models.Conversation
	decode(t, s.do(t, http.MethodGet, "/api/conversations?search=sarah", nil), &convs)
	require.Len(t, convs, 1)
	assert.Equal(t, "Sarah Martinez", convs[0].ParticipantName)

	resp := s.do(t, http.MethodPost, "/api/conversations/conv1/messages", map[string]string{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/conversations/nope/messages", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var msg models.Message
	resp = s.do(t, http.MethodPost, "/api/conversations/conv1/messages", map[string]string{"content": "See you at 5"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &msg)
	assert.Equal(t, models.CurrentUserID, msg.SenderID)

	var detail models.ConversationDetail
	decode(t, s.do(t, http.MethodGet, "/api/conversations/conv1", nil), &detail)
	assert.Equal(t, 0, detail.UnreadCount)
	assert.Equal(t, "See you at 5", detail.Messages[len(detail.Messages)-1].Content)

	var opened models.Conversation
	resp = s.do(t, http.MethodPost, "/api/conversations/open", map[string]string{"userId": "priya", "userName": "Priya"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &opened)
	assert.Equal(t, "conv_priya", opened.ID)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/conversations/open", map[string]string{}).StatusCode)
}

func TestDeleteAccountForgetsLikesAndMessages(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/profile", profileBody).StatusCode)

	resp := s.do(t, http.MethodPost, "/api/conversations/conv1/messages", map[string]string{"content": "secret note"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/feed/1/like", nil).StatusCode)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/account", nil).StatusCode)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/profile", profileBody).StatusCode)

	var feed []models.FeedPost
	decode(t, s.do(t, http.MethodGet, "/api/feed", nil), &feed)
	for _, p := range feed {
		assert.False(t, p.Liked, "post %d", p.ID)
	}

	var detail models.ConversationDetail
	decode(t, s.do(t, http.MethodGet, "/api/conversations/conv1", nil), &detail)
	for _, m := range detail.Messages {
		assert.NotEqual(t, "secret note", m.Content)
	}
}

func TestWebSocketReceivesNewMessages(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/profile", profileBody).StatusCode)

	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	header := http.Header{}
	for _, c := range s.client.Jar.Cookies(u) {
		header.Add("Cookie", c.String())
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+"/api/ws", header)
	require.NoError(t, err)
	defer conn.Close()

	// a ping round trip proves the connection is registered
	require.NoError(t, conn.WriteJSON(ws.Message{Action: "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got ws.Message
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, "pong", got.Action)

	require.Equal(t, http.StatusCreated,
		s.do(t, http.MethodPost, "/api/conversations/conv2/messages", map[string]string{"content": "live"}).StatusCode)

	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, services.EventNewMessage, got.Action)
	payload, ok := got.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "conv2", payload["conversationId"])
}

func TestPageFlow(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `href="/create-profile"`)

	resp = s.postForm(t, "/create-profile", url.Values{"email": {"jane@example.com"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "Name is required")
	assert.Contains(t, page, `value="jane@example.com"`)

	resp = s.postForm(t, "/create-profile", url.Values{
		"name":          {"Jane Doe"},
		"email":         {"jane@example.com"},
		"password":      {"hunter22"},
		"skills":        {"Go, Design"},
		"preferredWork": {"both"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/feed", resp.Header.Get("Location"))

	resp = s.do(t, http.MethodGet, "/feed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Alex Chen")

	resp = s.postForm(t, "/create-post", url.Values{
		"type":        {"offer_work"},
		"title":       {"Go mentoring"},
		"description": {"Weekly code reviews"},
		"skills":      {"Illustration"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Go mentoring")

	resp = s.postForm(t, "/edit-profile", url.Values{"name": {"Jane Q. Doe"}, "bio": {"Reviewer"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile", resp.Header.Get("Location"))

	resp = s.postForm(t, "/messages/open", url.Values{"userId": {"alexchen_dev"}, "userName": {"Alex Chen"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/messages?c=conv_alexchen_dev", resp.Header.Get("Location"))

	resp = s.postForm(t, "/messages/conv1", url.Values{"content": {"Hello from the form"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/messages?c=conv1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Hello from the form")

	resp = s.postForm(t, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = s.do(t, http.MethodGet, "/feed", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/no-such-page", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Page not found")

	resp = s.do(t, http.MethodGet, "/api/no-such-endpoint", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	env := decode(t, resp, nil)
	assert.False(t, env.Success)
}
