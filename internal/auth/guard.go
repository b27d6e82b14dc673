package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/avelar/taskboard-be/internal/models"
	"github.com/rs/zerolog/log"
)

// CookieName is the name of the session cookie.
const CookieName = "token"

type contextKey string

const userContextKey = contextKey("authUser")

// UserResolver resolves the user id from a verified token to a user record.
type UserResolver interface {
	GetUserByID(id string) (models.User, error)
}

// Guard authenticates requests using the session cookie and attaches the
// resolved user to the request context.
type Guard struct {
	secret []byte
	users  UserResolver
}

// NewGuard creates a new Guard.
func NewGuard(secret []byte, users UserResolver) *Guard {
	return &Guard{secret: secret, users: users}
}

// Middleware rejects any request that does not carry a valid session. A
// missing cookie, a tampered or expired token, and a token for a user that no
// longer exists all produce the identical response, so the failure mode is
// not observable from outside.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			unauthorized(w)
			return
		}

		userID, err := VerifyToken(cookie.Value, g.secret)
		if err != nil {
			log.Warn().Msg("Rejected request carrying an invalid session token")
			unauthorized(w)
			return
		}

		user, err := g.users.GetUserByID(userID)
		if err != nil {
			log.Warn().Str("user_id", userID).Msg("Session token references a missing user")
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUser returns the authenticated user placed in the context by the
// Guard middleware.
func CurrentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// NewSessionCookie builds the session cookie for a freshly issued token.
func NewSessionCookie(token string, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	}
}

// ClearedSessionCookie builds an already-expired cookie that removes the
// session on logout.
func ClearedSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": "Authentication required"})
}
