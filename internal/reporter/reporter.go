// Package reporter sends a periodic activity digest through the same
// sink the watcher uses. Counters are in-memory only; this is a liveness
// summary, not an audit log.
package reporter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"hwbot/internal/watcher"
	"hwbot/pkg/logx"
)

type StatsSource interface {
	Snapshot() watcher.Stats
}

type Sink interface {
	Notify(ctx context.Context, text string) error
}

type Config struct {
	Enabled  bool
	Schedule string // standard 5-field cron spec
}

type Service struct {
	log    logx.Logger
	source StatsSource
	sink   Sink
	parser cron.Parser

	mu   sync.Mutex
	cfg  Config
	c    *cron.Cron
	last watcher.Stats // counters at the previous digest
	ctx  context.Context
}

func New(cfg Config, source StatsSource, sink Sink, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:    log,
		source: source,
		sink:   sink,
		cfg:    cfg,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	return s.startLocked()
}

func (s *Service) startLocked() error {
	if !s.cfg.Enabled || s.c != nil {
		return nil
	}
	c := cron.New(cron.WithParser(s.parser))
	if _, err := c.AddFunc(s.cfg.Schedule, s.emit); err != nil {
		return fmt.Errorf("digest schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	s.c = c
	s.log.Info("digest scheduled", logx.String("spec", s.cfg.Schedule))
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
	s.log.Info("digest stopped")
}

// Apply reconfigures the digest at runtime (config reload).
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	running := s.c != nil
	if cfg == s.cfg && running == cfg.Enabled {
		return nil
	}
	s.stopLocked()
	s.cfg = cfg
	return s.startLocked()
}

func (s *Service) emit() {
	s.mu.Lock()
	ctx := s.ctx
	prev := s.last
	cur := s.source.Snapshot()
	s.last = cur
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	text := formatDigest(delta(prev, cur), cur.LastCycle)
	sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.sink.Notify(sctx, text); err != nil {
		s.log.Warn("digest not delivered", logx.Err(err))
	}
}

func delta(prev, cur watcher.Stats) watcher.Stats {
	return watcher.Stats{
		Cycles:     cur.Cycles - prev.Cycles,
		Failures:   cur.Failures - prev.Failures,
		Sent:       cur.Sent - prev.Sent,
		Suppressed: cur.Suppressed - prev.Suppressed,
		LastCycle:  cur.LastCycle,
	}
}

func formatDigest(d watcher.Stats, lastCycle time.Time) string {
	last := "never"
	if !lastCycle.IsZero() {
		last = lastCycle.UTC().Format("2006-01-02 15:04:05 MST")
	}
	return fmt.Sprintf(
		"hwbot digest: %d cycles, %d notifications sent, %d suppressed, %d failures; last cycle %s",
		d.Cycles, d.Sent, d.Suppressed, d.Failures, last,
	)
}
