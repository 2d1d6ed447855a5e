// Package mail delivers one-time-passcode emails over SMTP.
//
// Every Notifier call validates credentials, builds a fresh provider client,
// verifies the connection and only then sends. Failures are folded into a
// Result instead of being returned as Go errors, so HTTP handlers can relay
// the message to operators verbatim.
package mail

import (
	"context"
	"fmt"
)

// Error codes carried by ProviderError. They mirror the codes SMTP client
// libraries conventionally report, so operator runbooks keep working.
const (
	CodeAuth       = "EAUTH"
	CodeConnection = "ECONNECTION"
	CodeTimeout    = "ETIMEDOUT"
	CodeMessage    = "EMESSAGE"
	CodeProtocol   = "EPROTOCOL"
)

// SMTP reply code for rejected credentials.
const responseAuthFailed = 535

// Credentials identify the sending mail account.
type Credentials struct {
	User string
	Pass string
}

// Message is a single outgoing email. It is built per send and never stored.
type Message struct {
	FromName string
	From     string
	To       string
	Subject  string
	HTML     string
}

// Client is a connection to the mail provider.
type Client interface {
	// Verify connects and authenticates without sending anything.
	Verify(ctx context.Context) error
	// Send submits msg and returns the provider's message id.
	Send(ctx context.Context, msg *Message) (string, error)
	Close() error
}

// Dialer constructs a provider client from credentials. It must not touch
// the network; connecting is Verify's job.
type Dialer func(creds Credentials) (Client, error)

// ConfigError reports a missing credential.
type ConfigError struct {
	Variable string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not set in environment variables", e.Variable)
}

// ProviderError is a normalized failure from the mail provider.
type ProviderError struct {
	Code         string
	ResponseCode int
	Message      string
	Err          error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
