package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"patient-portal/internal/auth/resolver"
	"patient-portal/internal/auth/strategy"
	"patient-portal/internal/logger"
	"patient-portal/internal/middleware"
	"patient-portal/internal/session"
)

type Handler struct {
	strategies   *strategy.Registry
	sessionStore session.Store
	cookies      session.CookieOptions
	sessionTTL   time.Duration
	now          func() time.Time
}

func NewHandler(
	strategies *strategy.Registry,
	sessionStore session.Store,
	cookies session.CookieOptions,
	sessionTTL time.Duration,
) *Handler {
	return &Handler{
		strategies:   strategies,
		sessionStore: sessionStore,
		cookies:      cookies,
		sessionTTL:   sessionTTL,
		now:          time.Now,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/oauth/login/:provider", h.login)
	r.GET("/oauth/callback/:provider", h.callback)
	r.POST("/auth/logout", h.Logout)
}

func (h *Handler) login(c *gin.Context) {
	s, err := h.strategies.Get(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown oauth provider"})
		return
	}

	state, err := h.generateState(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	challenge, err := h.generatePKCE(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	c.Redirect(http.StatusFound, s.AuthCodeURL(state, challenge))
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	s, err := h.strategies.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown oauth provider"})
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid state"})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": errParam})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing pkce verifier"})
		return
	}

	// the verifier and state are single use
	h.setFlowCookie(c, stateCookieName, "", 0)
	h.setFlowCookie(c, pkceCookieName, "", 0)

	s.Authenticate(c.Request.Context(), code, codeVerifier).Done(func(err error, user *session.User) {
		if err != nil {
			h.loginFailed(c, providerName, err)
			return
		}
		h.startSession(c, *user)
	})
}

func (h *Handler) loginFailed(c *gin.Context, providerName string, err error) {
	fields := map[string]any{"provider": providerName, "error": err}

	var exErr *strategy.ExchangeError
	switch {
	case errors.As(err, &exErr):
		logger.Warn("oauth handshake failed", fields)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
	case errors.Is(err, resolver.ErrNoEmail), errors.Is(err, resolver.ErrEmailNotVerified):
		logger.Warn("oauth login rejected", fields)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("failed to resolve user", fields)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
	}
}

func (h *Handler) startSession(c *gin.Context, user session.User) {
	sessionID, err := session.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	now := h.now()
	sess := session.Session{
		SessionID: sessionID,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(h.sessionTTL),
	}

	if err := h.sessionStore.Create(c.Request.Context(), sess); err != nil {
		logger.Error("failed to persist session", map[string]any{"error": err})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		return
	}

	session.SetCookie(c.Writer, sessionID, sess.ExpiresAt, h.cookies)

	logger.Info("login success", map[string]any{
		"user_id": user.ID,
		"ip":      c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"status": "authenticated",
		"user":   user,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if sessionID := session.ReadCookie(c.Request, h.cookies); sessionID != "" {
		// best effort; the cookie is cleared regardless
		if err := h.sessionStore.Delete(c.Request.Context(), sessionID); err != nil {
			logger.Warn("failed to delete session", map[string]any{"error": err})
		}
	}

	session.ClearCookie(c.Writer, h.cookies)
	c.Status(http.StatusNoContent)
}

// Me returns the session user. Must run behind middleware.GinRequireAuth.
func (h *Handler) Me(c *gin.Context) {
	user, ok := middleware.UserFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}
