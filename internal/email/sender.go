// Package email composes and delivers the club's transactional mail.
package email

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNoRecipient = errors.New("email recipient is required")
	ErrNoSender    = errors.New("email sender is required")
	ErrEmptyBody   = errors.New("email subject and body are required")
)

// Sender delivers a single envelope. SESClient is the production implementation.
type Sender interface {
	Deliver(ctx context.Context, envelope Envelope) error
}

// Envelope addresses a Message. From and ReplyTo are optional; a blank From
// uses the sender's default address.
type Envelope struct {
	To      string
	From    string
	ReplyTo string
	Message Message
}

func (e Envelope) normalized() Envelope {
	e.To = strings.TrimSpace(e.To)
	e.From = strings.TrimSpace(e.From)
	e.ReplyTo = strings.TrimSpace(e.ReplyTo)
	return e
}

func (e Envelope) validate() error {
	if e.To == "" {
		return ErrNoRecipient
	}
	if strings.TrimSpace(e.Message.Subject) == "" || strings.TrimSpace(e.Message.Body) == "" {
		return ErrEmptyBody
	}
	return nil
}

// detached keeps the values of parent but not its cancellation, so a send
// started by a request survives the response being written.
func detached(parent context.Context) context.Context {
	if parent == nil {
		return context.Background()
	}
	return context.WithoutCancel(parent)
}
