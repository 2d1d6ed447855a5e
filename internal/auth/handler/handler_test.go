package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patient-portal/internal/auth"
	"patient-portal/internal/auth/provider"
	"patient-portal/internal/auth/resolver"
	"patient-portal/internal/auth/strategy"
	"patient-portal/internal/middleware"
	"patient-portal/internal/patient"
	"patient-portal/internal/session"
)

type stubProvider struct {
	identity *auth.Identity
	err      error

	gotCode     string
	gotVerifier string
}

func (p *stubProvider) Name() string { return "google" }

func (p *stubProvider) AuthCodeURL(state, challenge string) string {
	return "https://accounts.example.com/auth?" + url.Values{
		"state":          {state},
		"code_challenge": {challenge},
	}.Encode()
}

func (p *stubProvider) ExchangeCode(_ context.Context, code, verifier string) (*auth.Identity, error) {
	p.gotCode = code
	p.gotVerifier = verifier
	return p.identity, p.err
}

type memSessions struct {
	mu   sync.Mutex
	data map[string]session.Session
}

func newMemSessions() *memSessions {
	return &memSessions{data: map[string]session.Session{}}
}

func (m *memSessions) Create(_ context.Context, s session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.SessionID] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSessions) Update(ctx context.Context, s session.Session) error {
	return m.Create(ctx, s)
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type fixture struct {
	router   *gin.Engine
	provider *stubProvider
	sessions *memSessions
	patients *patient.MemoryStore
	cookies  session.CookieOptions
}

func newFixture(t *testing.T, p *stubProvider) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	patients := patient.NewMemoryStore()
	sessions := newMemSessions()
	cookies := session.CookieOptions{Secure: false}

	strategies := strategy.NewRegistry(provider.NewRegistry(p), resolver.NewPatientResolver(patients))
	h := NewHandler(strategies, sessions, cookies, time.Hour)

	r := gin.New()
	h.RegisterRoutes(r)
	api := r.Group("/api")
	api.Use(middleware.GinRequireAuth(middleware.NewAuthMiddleware(sessions, cookies, time.Hour)))
	api.GET("/me", h.Me)

	return &fixture{router: r, provider: p, sessions: sessions, patients: patients, cookies: cookies}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// startLogin runs /oauth/login and returns the state and verifier cookies.
func (f *fixture) startLogin(t *testing.T) (state, verifier string) {
	t.Helper()
	rec := f.do(httptest.NewRequest(http.MethodGet, "/oauth/login/google", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)

	state = cookieValue(rec, stateCookieName)
	verifier = cookieValue(rec, pkceCookieName)
	require.NotEmpty(t, state)
	require.NotEmpty(t, verifier)
	assert.Equal(t, state, loc.Query().Get("state"))
	assert.Equal(t, pkceChallenge(verifier), loc.Query().Get("code_challenge"))
	return state, verifier
}

func callbackRequest(query, state, verifier string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/oauth/callback/google?"+query, nil)
	if state != "" {
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: state})
	}
	if verifier != "" {
		req.AddCookie(&http.Cookie{Name: pkceCookieName, Value: verifier})
	}
	return req
}

func janeIdentity() *auth.Identity {
	return &auth.Identity{
		Provider:      "google",
		DisplayName:   "Jane Doe",
		Emails:        []string{"jane@example.com"},
		EmailVerified: true,
	}
}

func TestLoginUnknownProvider(t *testing.T) {
	f := newFixture(t, &stubProvider{})
	rec := f.do(httptest.NewRequest(http.MethodGet, "/oauth/login/github", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackCreatesSession(t *testing.T) {
	f := newFixture(t, &stubProvider{identity: janeIdentity()})
	state, verifier := f.startLogin(t)

	rec := f.do(callbackRequest("state="+state+"&code=abc", state, verifier))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "abc", f.provider.gotCode)
	assert.Equal(t, verifier, f.provider.gotVerifier)

	var body struct {
		Status string       `json:"status"`
		User   session.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authenticated", body.Status)
	assert.Equal(t, "jane@example.com", body.User.Email)
	assert.Equal(t, "Jane Doe", body.User.Name)

	sid := cookieValue(rec, f.cookies.Name())
	require.NotEmpty(t, sid)
	stored, err := f.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, body.User, stored.User)

	rec2 := f.do(func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: f.cookies.Name(), Value: sid})
		return req
	}())
	require.Equal(t, http.StatusOK, rec2.Code)
	var me session.User
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &me))
	assert.Equal(t, body.User, me)
}

func TestCallbackRejectsBadState(t *testing.T) {
	f := newFixture(t, &stubProvider{identity: janeIdentity()})

	rec := f.do(callbackRequest("state=forged&code=abc", "real", "verifier"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.provider.gotCode)
}

func TestCallbackProviderError(t *testing.T) {
	f := newFixture(t, &stubProvider{identity: janeIdentity()})

	rec := f.do(callbackRequest("state=s&error=access_denied", "s", "v"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_denied")
}

func TestCallbackMissingCodeOrVerifier(t *testing.T) {
	f := newFixture(t, &stubProvider{identity: janeIdentity()})

	rec := f.do(callbackRequest("state=s", "s", "v"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(callbackRequest("state=s&code=abc", "s", ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCallbackFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
		status   int
	}{
		{name: "handshake", provider: &stubProvider{err: errors.New("invalid_grant")}, status: http.StatusUnauthorized},
		{name: "no email", provider: &stubProvider{identity: &auth.Identity{Provider: "google"}}, status: http.StatusBadRequest},
		{name: "unverified email", provider: &stubProvider{identity: &auth.Identity{
			Provider: "google",
			Emails:   []string{"jane@example.com"},
		}}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.provider)
			rec := f.do(callbackRequest("state=s&code=abc", "s", "v"))
			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, cookieValue(rec, f.cookies.Name()))
			assert.Empty(t, f.sessions.data)
		})
	}
}

func TestMeRequiresSession(t *testing.T) {
	f := newFixture(t, &stubProvider{})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutDeletesSession(t *testing.T) {
	f := newFixture(t, &stubProvider{})
	require.NoError(t, f.sessions.Create(context.Background(), session.Session{
		SessionID: "sid",
		User:      session.User{ID: "u"},
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: f.cookies.Name(), Value: "sid"})
	rec := f.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.sessions.data)
}
