package session

import (
	"net/http"
	"time"
)

// CookieName carries the __Host- prefix only when cookies are Secure;
// browsers drop __Host- cookies set without it.
const (
	CookieName         = "__Host-portal_session"
	InsecureCookieName = "portal_session"
)

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

// Name returns the cookie name matching the Secure flag.
func (o CookieOptions) Name() string {
	if o.Secure {
		return CookieName
	}
	return InsecureCookieName
}

func (o CookieOptions) sameSite() http.SameSite {
	if o.SameSite == 0 {
		return http.SameSiteLaxMode
	}
	return o.SameSite
}

// SetCookie issues the session cookie to the client.
func SetCookie(w http.ResponseWriter, sessionID string, expiresAt time.Time, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name(),
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.sameSite(),
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.sameSite(),
	})
}

// ReadCookie returns the session id from r, or "" when absent.
func ReadCookie(r *http.Request, opts CookieOptions) string {
	c, err := r.Cookie(opts.Name())
	if err != nil {
		return ""
	}
	return c.Value
}
