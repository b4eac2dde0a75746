// Package mailer defines the outbound email contract. Actual delivery is an
// external collaborator; the engine only hands off jobs.
package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
)

// Email is a single outbound message.
type Email struct {
	To      string `json:"to"`
	From    string `json:"from"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Mailer dispatches email. Implementations are fire-and-forget from the
// engine's perspective: an error means the handoff failed, not delivery.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// Log is a development mailer that only logs the handoff.
type Log struct {
	Logger *logger.Logger
}

func (l *Log) Send(ctx context.Context, email Email) error {
	l.Logger.Info("mail handoff (log mailer)",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
	)
	return nil
}
