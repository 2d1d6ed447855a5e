package middleware

import (
	"context"
	"net/http"
	"time"

	"patient-portal/internal/logger"
	"patient-portal/internal/session"
)

type userContextKeyType struct{}

var userKey = userContextKeyType{}

// UserFromContext returns the session user attached by RequireAuth.
func UserFromContext(ctx context.Context) (session.User, bool) {
	u, ok := ctx.Value(userKey).(session.User)
	return u, ok
}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u session.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// AuthMiddleware admits requests carrying a live session. A session used in
// the second half of its lifetime is extended by a full TTL.
type AuthMiddleware struct {
	Store   session.Store
	Cookies session.CookieOptions
	TTL     time.Duration
	Now     func() time.Time
}

func NewAuthMiddleware(store session.Store, cookies session.CookieOptions, ttl time.Duration) *AuthMiddleware {
	return &AuthMiddleware{Store: store, Cookies: cookies, TTL: ttl, Now: time.Now}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := session.ReadCookie(r, a.Cookies)
		if sessionID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sess, err := a.Store.Get(r.Context(), sessionID)
		if err != nil || sess == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		now := a.Now()
		if now.After(sess.ExpiresAt) {
			_ = a.Store.Delete(r.Context(), sessionID)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if a.TTL > 0 && sess.ExpiresAt.Sub(now) < a.TTL/2 {
			a.extend(w, r, *sess, now)
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), sess.User)))
	})
}

// extend slides the expiry forward. Failure is logged and the request still
// proceeds on the current session.
func (a *AuthMiddleware) extend(w http.ResponseWriter, r *http.Request, sess session.Session, now time.Time) {
	sess.ExpiresAt = now.Add(a.TTL)
	if err := a.Store.Update(r.Context(), sess); err != nil {
		logger.Warn("failed to extend session", map[string]any{"error": err})
		return
	}
	session.SetCookie(w, sess.SessionID, sess.ExpiresAt, a.Cookies)
}
