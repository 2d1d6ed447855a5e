package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig describes the relay. Credentials are supplied per dial.
type SMTPConfig struct {
	Host    string
	Port    int
	Timeout time.Duration
	// TLSOptional lets the session continue in plaintext when the relay
	// offers no STARTTLS. PLAIN auth still refuses to run unencrypted
	// against anything but localhost.
	TLSOptional bool
}

// NewSMTPDialer returns a Dialer producing go-mail clients that speak
// STARTTLS with PLAIN auth, the setup Gmail app passwords require.
func NewSMTPDialer(cfg SMTPConfig) Dialer {
	policy := gomail.TLSMandatory
	if cfg.TLSOptional {
		policy = gomail.TLSOpportunistic
	}

	return func(creds Credentials) (Client, error) {
		sc := &smtpClient{}
		opts := []gomail.Option{
			gomail.WithPort(cfg.Port),
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(creds.User),
			gomail.WithPassword(creds.Pass),
			gomail.WithTLSPortPolicy(policy),
			gomail.WithDialContextFunc(sc.dialContext),
		}
		if cfg.Timeout > 0 {
			opts = append(opts, gomail.WithTimeout(cfg.Timeout))
		}

		c, err := gomail.NewClient(cfg.Host, opts...)
		if err != nil {
			return nil, &ProviderError{
				Code:    CodeConnection,
				Message: fmt.Sprintf("smtp: create client: %v", err),
				Err:     err,
			}
		}
		sc.client = c
		return sc, nil
	}
}

type smtpClient struct {
	client    *gomail.Client
	conn      net.Conn
	connected bool
}

// dialContext records the socket so Close can release it even when the
// session died between connect and AUTH.
func (c *smtpClient) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return conn, nil
}

func (c *smtpClient) Verify(ctx context.Context) error {
	if err := c.client.DialWithContext(ctx); err != nil {
		return classifyDialError(err)
	}
	c.connected = true
	return nil
}

func (c *smtpClient) Send(ctx context.Context, msg *Message) (string, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(msg.FromName, msg.From); err != nil {
		return "", &ProviderError{Code: CodeMessage, Message: err.Error(), Err: err}
	}
	if err := m.To(msg.To); err != nil {
		return "", &ProviderError{Code: CodeMessage, Message: err.Error(), Err: err}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	m.SetDate()
	m.SetMessageID()

	if !c.connected {
		if err := c.Verify(ctx); err != nil {
			return "", err
		}
	}

	if err := c.client.Send(m); err != nil {
		return "", classifySendError(err)
	}

	return m.GetMessageID(), nil
}

// Close sends QUIT when the session is still usable and always closes the
// socket. go-mail keeps the connection open after a failed STARTTLS or AUTH.
func (c *smtpClient) Close() error {
	c.connected = false
	err := c.client.Close()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	return err
}

// classifyDialError maps connect and AUTH failures onto ProviderError codes.
func classifyDialError(err error) error {
	pe := &ProviderError{Code: CodeConnection, Message: err.Error(), Err: err}

	var tpErr *textproto.Error
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		pe.Code = CodeTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		pe.Code = CodeTimeout
	case errors.As(err, &tpErr):
		pe.ResponseCode = tpErr.Code
		if isAuthReply(tpErr.Code) {
			pe.Code = CodeAuth
		} else {
			pe.Code = CodeProtocol
		}
	}
	return pe
}

// classifySendError maps delivery failures. A rejected message keeps the
// server's reply code so callers can tell credential problems apart.
func classifySendError(err error) error {
	var sendErr *gomail.SendError
	if errors.As(err, &sendErr) {
		return &ProviderError{
			Code:         CodeMessage,
			ResponseCode: sendErr.ErrorCode(),
			Message:      err.Error(),
			Err:          err,
		}
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return &ProviderError{
			Code:         CodeMessage,
			ResponseCode: tpErr.Code,
			Message:      err.Error(),
			Err:          err,
		}
	}

	return classifyDialError(err)
}

func isAuthReply(code int) bool {
	switch code {
	case 530, 534, 535:
		return true
	}
	return false
}
