package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndReadCookie(t *testing.T) {
	for _, secure := range []bool{true, false} {
		opts := CookieOptions{Secure: secure}
		rec := httptest.NewRecorder()

		SetCookie(rec, "sid", time.Now().Add(time.Hour), opts)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, opts.Name(), c.Name)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, secure, c.Secure)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(c)
		assert.Equal(t, "sid", ReadCookie(req, opts))
	}
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCookie(rec, CookieOptions{Secure: true})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestGenerateIDUnique(t *testing.T) {
	a, err := GenerateID()
	require.NoError(t, err)
	b, err := GenerateID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
