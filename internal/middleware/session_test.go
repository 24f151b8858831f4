package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/services"
)

func echoSession() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetSessionID(r.Context())))
	})
}

func TestSessionMintsCookie(t *testing.T) {
	s := NewSessions("secret", time.Hour, false)
	rec := httptest.NewRecorder()
	s.Middleware(echoSession()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	sessionID := rec.Body.String()
	require.NotEmpty(t, sessionID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	parsed, err := s.Parse(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, sessionID, parsed)
}

func TestSessionReusesValidToken(t *testing.T) {
	s := NewSessions("secret", time.Hour, false)
	token, err := s.Issue("abc-123")
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		rec := httptest.NewRecorder()
		s.Middleware(echoSession()).ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Body.String())
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		s.Middleware(echoSession()).ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Body.String())
	})
}

func TestSessionRefreshesAgingToken(t *testing.T) {
	s := NewSessions("secret", time.Hour, false)
	aging, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": "abc-123",
		"iat":        time.Now().Add(-40 * time.Minute).Unix(),
		"exp":        time.Now().Add(20 * time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: aging})
	rec := httptest.NewRecorder()
	s.Middleware(echoSession()).ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, aging, cookies[0].Value)

	sessionID, issuedAt, err := s.parse(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", sessionID)
	assert.WithinDuration(t, time.Now(), issuedAt, time.Minute)
}

func TestSessionRejectsBadTokens(t *testing.T) {
	s := NewSessions("secret", time.Hour, false)

	other, err := NewSessions("other-secret", time.Hour, false).Issue("abc")
	require.NoError(t, err)
	expired, err := NewSessions("secret", -time.Minute, false).Issue("abc")
	require.NoError(t, err)
	noClaim, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": other,
		"expired":      expired,
		"no claim":     noClaim,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Parse(token)
			assert.Error(t, err)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			rec := httptest.NewRecorder()
			s.Middleware(echoSession()).ServeHTTP(rec, req)

			assert.NotEqual(t, "abc", rec.Body.String())
			assert.Len(t, rec.Result().Cookies(), 1)
		})
	}
}

type stubProfiles struct {
	err error
}

func (s stubProfiles) Get(context.Context, string) (*models.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Profile{Name: "Jane"}, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestRequireProfilePage(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireProfilePage(stubProfiles{err: services.ErrNoSession})(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, CreateProfilePath, rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	RequireProfilePage(stubProfiles{})(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	RequireProfilePage(stubProfiles{err: errors.New("disk on fire")})(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireProfileAPI(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireProfileAPI(stubProfiles{err: services.ErrNoSession})(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp models.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, CreateProfilePath, resp.Redirect)

	rec = httptest.NewRecorder()
	RequireProfileAPI(stubProfiles{})(okHandler()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
