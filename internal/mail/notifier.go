package mail

import (
	"context"
	"errors"
	"time"

	"patient-portal/internal/logger"
)

const (
	senderName = "Medicare"
	otpSubject = "Email Verification OTP - Medicare"

	msgConfigValid   = "Email configuration is valid"
	msgVerifyAuth    = "Authentication failed. Please check your EMAIL_USER and EMAIL_PASS. Make sure you're using a Gmail App Password, not your regular password."
	msgVerifyConn    = "Connection failed. Please check your internet connection."
	msgVerifyDefault = "Failed to verify email configuration"
	msgSendAuth      = "Email authentication failed. Please check your EMAIL_USER and EMAIL_PASS in .env file. Make sure you're using a Gmail App Password."
	msgSendConn      = "Connection error. Please check your internet connection and try again."
	msgSendAuthCode  = "Authentication failed. Please verify your Gmail App Password is correct."
	msgSendDefault   = "Failed to send OTP email."
)

// Result is the outcome of a Notifier operation. Error holds the text meant
// for humans, Details the raw provider message and Err the typed cause.
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Details   string `json:"details,omitempty"`
	Err       error  `json:"-"`
}

// Notifier sends OTP emails. It holds no connection between calls.
type Notifier struct {
	creds Credentials
	dial  Dialer
	now   func() time.Time
}

type Option func(*Notifier)

// WithClock overrides the clock used for the copyright year.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

func NewNotifier(creds Credentials, dial Dialer, opts ...Option) *Notifier {
	n := &Notifier{
		creds: creds,
		dial:  dial,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// CheckConfiguration reports the first missing credential. It does not
// contact the provider.
func (n *Notifier) CheckConfiguration() error {
	if n.creds.User == "" {
		return &ConfigError{Variable: "EMAIL_USER"}
	}
	if n.creds.Pass == "" {
		return &ConfigError{Variable: "EMAIL_PASS"}
	}
	return nil
}

// VerifyConnection connects and authenticates against the provider.
func (n *Notifier) VerifyConnection(ctx context.Context) Result {
	if err := n.CheckConfiguration(); err != nil {
		return Result{Error: err.Error(), Err: err}
	}

	client, err := n.dial(n.creds)
	if err != nil {
		return verifyFailure(err)
	}
	defer client.Close()

	if err := client.Verify(ctx); err != nil {
		logger.Error("email verification error", map[string]any{"error": err})
		return verifyFailure(err)
	}

	return Result{Success: true, Message: msgConfigValid}
}

// SendOTP emails code to recipient. The connection is verified before every
// send; a connection is never reused across calls.
func (n *Notifier) SendOTP(ctx context.Context, recipient, code string) Result {
	if err := n.CheckConfiguration(); err != nil {
		logger.Error("email configuration error", map[string]any{"error": err})
		return Result{Error: err.Error(), Err: err}
	}

	client, err := n.dial(n.creds)
	if err != nil {
		return sendFailure(err)
	}
	defer client.Close()

	if err := client.Verify(ctx); err != nil {
		return sendFailure(err)
	}
	logger.Debug("email server connection verified", nil)

	body, err := renderOTP(otpData{
		Code:      code,
		Recipient: recipient,
		Year:      n.now().Year(),
	})
	if err != nil {
		return sendFailure(err)
	}

	msg := &Message{
		FromName: senderName,
		From:     n.creds.User,
		To:       recipient,
		Subject:  otpSubject,
		HTML:     body,
	}

	id, err := client.Send(ctx, msg)
	if err != nil {
		return sendFailure(err)
	}

	logger.Info("otp email sent", map[string]any{
		"message_id": id,
		"recipient":  recipient,
	})

	return Result{Success: true, MessageID: id}
}

func verifyFailure(err error) Result {
	res := Result{Err: err, Details: err.Error()}

	var perr *ProviderError
	switch {
	case errors.As(err, &perr) && perr.Code == CodeAuth:
		res.Error = msgVerifyAuth
	case errors.As(err, &perr) && perr.Code == CodeConnection:
		res.Error = msgVerifyConn
	case err.Error() != "":
		res.Error = err.Error()
	default:
		res.Error = msgVerifyDefault
	}
	return res
}

func sendFailure(err error) Result {
	logger.Error("error sending otp email", map[string]any{"error": err})

	res := Result{Err: err, Details: err.Error()}

	var perr *ProviderError
	if !errors.As(err, &perr) {
		perr = &ProviderError{}
	}

	switch {
	case perr.Code == CodeAuth:
		res.Error = msgSendAuth
	case perr.Code == CodeConnection || perr.Code == CodeTimeout:
		res.Error = msgSendConn
	case perr.ResponseCode == responseAuthFailed:
		res.Error = msgSendAuthCode
	case err.Error() != "":
		res.Error = err.Error()
	default:
		res.Error = msgSendDefault
	}
	return res
}
