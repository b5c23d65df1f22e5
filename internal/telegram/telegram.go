// Package telegram is a thin send-only adapter over telebot. The bot never
// receives updates, so no poller is configured.
package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"hwbot/pkg/logx"
)

type Config struct {
	Token   string
	Timeout time.Duration

	// Offline skips the getMe token check. Used by tests.
	Offline bool
}

type Adapter struct {
	bot *tele.Bot
	log logx.Logger
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Client:  &http.Client{Timeout: timeout},
		Offline: cfg.Offline,
	})
	if err != nil {
		return nil, err
	}
	if b.Me != nil {
		log.Debug("telegram bot authorized", logx.String("username", b.Me.Username))
	}
	return &Adapter{bot: b, log: log}, nil
}

// SendText delivers one plain-text message. telebot handles its own
// timeouts through the HTTP client; ctx is honored up front only.
func (a *Adapter) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Send(tele.ChatID(chatID), text)
	return err
}
