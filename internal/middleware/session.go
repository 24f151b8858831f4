package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type contextKey string

const SessionIDKey contextKey = "sessionID"

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// Sessions issues and verifies the HS256 tokens that name a session's
// key-value namespace.
type Sessions struct {
	secret     []byte
	expiration time.Duration
	secure     bool
}

func NewSessions(secret string, expiration time.Duration, secure bool) *Sessions {
	return &Sessions{
		secret:     []byte(secret),
		expiration: expiration,
		secure:     secure,
	}
}

// Issue signs a token for sessionID.
func (s *Sessions) Issue(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"session_id": sessionID,
		"exp":        time.Now().Add(s.expiration).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse returns the session id inside tokenString.
func (s *Sessions) Parse(tokenString string) (string, error) {
	sessionID, _, err := s.parse(tokenString)
	return sessionID, err
}

// parse also returns when the token was issued.
func (s *Sessions) parse(tokenString string) (string, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", time.Time{}, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, jwt.ErrTokenInvalidClaims
	}

	sessionID, ok := claims["session_id"].(string)
	if !ok || sessionID == "" {
		return "", time.Time{}, jwt.ErrTokenInvalidClaims
	}

	var issuedAt time.Time
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		issuedAt = iat.Time
	}
	return sessionID, issuedAt, nil
}

// Middleware makes sure every request has a session. A missing or invalid
// token starts a new session and sets the cookie. A token past half its
// lifetime is re-issued for the same session.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, issuedAt, err := s.parse(tokenFromRequest(r))
		if err != nil {
			sessionID = uuid.New().String()
		}
		if err != nil || time.Since(issuedAt) > s.expiration/2 {
			token, err := s.Issue(sessionID)
			if err != nil {
				log.Error().Err(err).Msg("Failed to sign session token")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, s.cookie(token))
		}

		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
	})
}

func (s *Sessions) cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.expiration / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// GetSessionID extracts the session id from context
func GetSessionID(ctx context.Context) string {
	sessionID, ok := ctx.Value(SessionIDKey).(string)
	if !ok {
		return ""
	}
	return sessionID
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}
