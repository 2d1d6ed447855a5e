package mail

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"patient-portal/internal/logger"
)

// LogDialer returns clients that log messages instead of sending them.
// Useful for development where no relay is reachable.
func LogDialer() Dialer {
	return func(Credentials) (Client, error) {
		return logClient{}, nil
	}
}

type logClient struct{}

func (logClient) Verify(context.Context) error { return nil }

func (logClient) Send(_ context.Context, msg *Message) (string, error) {
	id := fmt.Sprintf("<%s@patient-portal.local>", uuid.NewString())
	logger.Info("EMAIL (dev mode - not actually sent)", map[string]any{
		"message_id": id,
		"from":       msg.From,
		"to":         msg.To,
		"subject":    msg.Subject,
		"html":       msg.HTML,
	})
	return id, nil
}

func (logClient) Close() error { return nil }
