package email

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const sendTimeout = 10 * time.Second

// SendAsync delivers envelope in the background with its own timeout.
// Incomplete envelopes and a nil sender are dropped silently; delivery
// failures are logged on the request logger carried by ctx.
func SendAsync(ctx context.Context, sender Sender, envelope Envelope) {
	if sender == nil {
		return
	}
	envelope = envelope.normalized()
	if err := envelope.validate(); err != nil {
		return
	}
	logger := loggerFrom(ctx)

	go func() {
		sendCtx, cancel := context.WithTimeout(detached(ctx), sendTimeout)
		defer cancel()

		if err := sender.Deliver(sendCtx, envelope); err != nil {
			logger.Error().
				Err(err).
				Str("recipient", envelope.To).
				Str("subject", envelope.Message.Subject).
				Msg("Failed to deliver email")
		}
	}()
}

func loggerFrom(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &log.Logger
	}
	return log.Ctx(ctx)
}
