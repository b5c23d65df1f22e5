// Package notifier delivers watcher messages to the configured chat.
// Delivery failures are contained here: they are logged, wrapped as
// *DeliveryError, and returned for the caller to decide on.
package notifier

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"hwbot/pkg/logx"
)

// DeliveryError wraps a failure to hand a message to the messaging
// provider. Never fatal to the watcher.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("message not delivered: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Sender is the messaging provider's send-message operation.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Config struct {
	ChatID      int64
	RatePerSec  int
	SendTimeout time.Duration
}

type Service struct {
	log     logx.Logger
	sender  Sender
	cfg     Config
	limiter *rate.Limiter
}

func New(cfg Config, sender Sender, log logx.Logger) *Service {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:    log,
		sender: sender,
		cfg:    cfg,
		// Burst = rate per sec so a status change and an error report
		// in the same cycle don't block each other.
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

// Notify sends one text message to the configured chat. It never panics;
// any failure comes back as *DeliveryError.
func (s *Service) Notify(ctx context.Context, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &DeliveryError{Err: err}
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	if err := s.sender.SendText(sctx, s.cfg.ChatID, text); err != nil {
		s.log.Error("telegram send failed", logx.Err(err), logx.String("text", text))
		return &DeliveryError{Err: err}
	}
	s.log.Debug("telegram message sent", logx.String("text", text))
	return nil
}
