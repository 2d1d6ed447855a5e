package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"patient-portal/internal/mail"
)

// emailCheckTTL bounds how often /health/email logs in to the relay.
const emailCheckTTL = 30 * time.Second

// EmailVerifier is satisfied by *mail.Notifier.
type EmailVerifier interface {
	VerifyConnection(ctx context.Context) mail.Result
}

// emailStatus is the public view of a verification. Provider details stay in
// the logs.
type emailStatus struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type Handler struct {
	email EmailVerifier
	now   func() time.Time

	mu        sync.Mutex
	last      emailStatus
	checkedAt time.Time
}

func NewHandler(email EmailVerifier) *Handler {
	return &Handler{email: email, now: time.Now}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.health)
	r.GET("/health/email", h.emailHealth)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// emailHealth answers 503 when the mail relay is unusable.
func (h *Handler) emailHealth(c *gin.Context) {
	status := h.checkEmail(c.Request.Context())
	if !status.Success {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// checkEmail reuses the last verification for emailCheckTTL. Concurrent
// callers wait on the one in flight.
func (h *Handler) checkEmail(ctx context.Context) emailStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if !h.checkedAt.IsZero() && now.Sub(h.checkedAt) < emailCheckTTL {
		return h.last
	}

	res := h.email.VerifyConnection(ctx)
	h.last = emailStatus{Success: res.Success, Error: res.Error}
	h.checkedAt = now
	return h.last
}
