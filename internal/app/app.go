// Package app wires configuration, logging, the Telegram sink, the
// watcher, and the digest reporter into one runnable daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"hwbot/internal/config"
	"hwbot/internal/notifier"
	"hwbot/internal/practicum"
	"hwbot/internal/reporter"
	"hwbot/internal/telegram"
	"hwbot/internal/watcher"
	"hwbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	sink  *notifier.Service
	watch *watcher.Watcher
	rep   *reporter.Service
}

// New loads and validates configuration and builds every component.
// A validation failure here is the daemon's one fatal error path; the
// caller exits non-zero.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	if err := cfg.Validate(); err != nil {
		log.Error("startup aborted: configuration invalid", logx.Err(err))
		logs.Close()
		return nil, err
	}

	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(func(next *config.Config) error {
		if err := next.Validate(); err != nil {
			return err
		}
		// Credentials and target chat are startup-only; a reload must
		// not silently repoint the bot.
		if next.Practicum.Token != cfg.Practicum.Token ||
			next.Telegram.Token != cfg.Telegram.Token ||
			next.Telegram.ChatID != cfg.Telegram.ChatID {
			return errors.New("credentials cannot change at runtime; restart the daemon")
		}
		return nil
	})

	adapter, err := telegram.New(telegram.Config{
		Token: cfg.Telegram.Token,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("telegram bot: %w", err)
	}

	client, err := practicum.NewClient(practicum.Config{
		Endpoint: cfg.Practicum.Endpoint,
		Token:    cfg.Practicum.Token,
		Timeout:  cfg.RequestTimeout(),
	}, log.With(logx.String("comp", "practicum")))
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("practicum client: %w", err)
	}

	sink := notifier.New(notifier.Config{
		ChatID:     cfg.ChatID(),
		RatePerSec: cfg.Telegram.RatePerSec,
	}, adapter, log.With(logx.String("comp", "notifier")))

	watch := watcher.New(client, sink, log.With(logx.String("comp", "watcher")), watcher.Options{
		Interval: func() time.Duration { return cfgm.Get().PollInterval() },
	})

	rep := reporter.New(reporter.Config{
		Enabled:  cfg.Digest.Enabled,
		Schedule: cfg.Digest.Schedule,
	}, watch, sink, log.With(logx.String("comp", "digest")))

	return &App{
		cfgm:  cfgm,
		logs:  logs,
		log:   log.With(logx.String("comp", "app")),
		sink:  sink,
		watch: watch,
		rep:   rep,
	}, nil
}

// Run blocks until ctx is cancelled. The watcher loop is the main
// goroutine; config watching and the systemd watchdog run beside it as
// ambient plumbing.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.cfgm.Watch(ctx); err != nil {
			a.log.Warn("config watch unavailable", logx.Err(err))
		}
	}()

	sub := a.cfgm.Subscribe(1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyReload(cfg)
			}
		}
	}()

	if err := a.rep.Start(ctx); err != nil {
		a.log.Warn("digest disabled", logx.Err(err))
	}

	a.notifySystemd(ctx, &wg)

	err := a.watch.Run(ctx)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	cancel()
	a.rep.Stop()
	a.cfgm.Unsubscribe(sub)
	wg.Wait()
	a.logs.Close()
	return err
}

func (a *App) applyReload(cfg *config.Config) {
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err := a.rep.Apply(reporter.Config{
		Enabled:  cfg.Digest.Enabled,
		Schedule: cfg.Digest.Schedule,
	}); err != nil {
		a.log.Warn("digest reconfigure failed", logx.Err(err))
	}
	a.log.Info("runtime config applied",
		logx.String("level", cfg.Logging.Level),
		logx.Duration("poll_interval", cfg.PollInterval()))
}

// notifySystemd reports readiness and, when the unit has WatchdogSec set,
// keeps pinging at half the watchdog interval.
func (a *App) notifySystemd(ctx context.Context, wg *sync.WaitGroup) {
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Debug("sd_notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("systemd notified ready")
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	}()
}
