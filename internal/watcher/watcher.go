// Package watcher owns the poll-detect-notify loop. It is the only
// stateful component: everything it calls is a pure function or a
// side-effecting sink, and every per-cycle failure is contained here so
// the process never dies mid-watch.
package watcher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"hwbot/internal/review"
	"hwbot/pkg/logx"
)

// DefaultInterval matches the API's recommended poll period.
const DefaultInterval = 600 * time.Second

// Fetcher issues one request to the statuses endpoint per cycle.
type Fetcher interface {
	Fetch(ctx context.Context, fromDate int64) (json.RawMessage, error)
}

// Sink delivers one text message; failures come back as errors, never
// panics.
type Sink interface {
	Notify(ctx context.Context, text string) error
}

// Clock abstracts time so tests can run cycles without real delays.
// Sleep returns ctx.Err() when cancelled early.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Stats are cumulative counters for the digest reporter.
type Stats struct {
	Cycles     uint64
	Failures   uint64
	Sent       uint64
	Suppressed uint64
	LastCycle  time.Time
}

type Options struct {
	// Clock defaults to the system clock.
	Clock Clock

	// Interval is read before every sleep so a config reload takes
	// effect on the next cycle. Defaults to DefaultInterval.
	Interval func() time.Duration
}

// Watcher runs one sequential cycle at a time. State (cursor, last sent
// message, last reported failure) is owned exclusively by the loop; only
// Stats is shared, behind its own mutex.
type Watcher struct {
	fetcher  Fetcher
	sink     Sink
	log      logx.Logger
	clock    Clock
	interval func() time.Duration

	cursor      int64
	lastMessage string
	lastFailure string

	statsMu sync.Mutex
	stats   Stats
}

func New(fetcher Fetcher, sink Sink, log logx.Logger, opts Options) *Watcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	interval := opts.Interval
	if interval == nil {
		interval = func() time.Duration { return DefaultInterval }
	}
	return &Watcher{
		fetcher:  fetcher,
		sink:     sink,
		log:      log,
		clock:    clock,
		interval: interval,
	}
}

// Run polls until ctx is cancelled. Cancellation is the only way out and
// is not an error: the daemon exits 0 on an external stop.
func (w *Watcher) Run(ctx context.Context) error {
	w.cursor = w.clock.Now().Unix()
	w.log.Info("watcher started", logx.Int64("from_date", w.cursor))

	for {
		if ctx.Err() != nil {
			w.log.Info("watcher stopped")
			return nil
		}
		w.cycle(ctx)
		if err := w.clock.Sleep(ctx, w.interval()); err != nil {
			w.log.Info("watcher stopped")
			return nil
		}
	}
}

// cycle runs fetch -> validate -> select -> interpret -> notify once.
// It never returns an error: failures are logged, reported through the
// sink, and the loop carries on.
func (w *Watcher) cycle(ctx context.Context) {
	w.statsMu.Lock()
	w.stats.Cycles++
	w.stats.LastCycle = w.clock.Now()
	w.statsMu.Unlock()

	raw, err := w.fetcher.Fetch(ctx, w.cursor)
	if err != nil {
		// Fetch failed: the cursor stays put so the next cycle retries
		// the same window.
		w.reportFailure(ctx, err)
		return
	}

	batch, err := review.Validate(raw)
	if err != nil {
		w.reportFailure(ctx, err)
		return
	}

	// The fetch succeeded, so the server cursor is trustworthy even if
	// the rest of the cycle fails. Absent cursor keeps the old window.
	if batch.HasDate {
		w.cursor = batch.CurrentDate
	}

	if len(batch.Homeworks) == 0 {
		w.log.Debug("no homework updates")
		return
	}

	// The feed is newest-first; only the most recent submission is
	// examined. Older entries in the same batch are skipped, not queued.
	text, err := review.Interpret(batch.Homeworks[0])
	if err != nil {
		w.reportFailure(ctx, err)
		return
	}

	w.deliver(ctx, text)
}

func (w *Watcher) deliver(ctx context.Context, text string) {
	if text == w.lastMessage {
		w.log.Debug("status unchanged")
		w.statsMu.Lock()
		w.stats.Suppressed++
		w.statsMu.Unlock()
		return
	}

	err := w.sink.Notify(ctx, text)

	// The content counts as seen regardless of delivery outcome: a
	// persistently unreachable chat must not turn into a resend storm.
	w.lastMessage = text

	if err != nil {
		w.log.Error("status notification lost", logx.Err(err))
		w.statsMu.Lock()
		w.stats.Failures++
		w.statsMu.Unlock()
		return
	}

	w.statsMu.Lock()
	w.stats.Sent++
	w.statsMu.Unlock()
	w.log.Info("status notification sent", logx.String("text", text))
}

// reportFailure logs a cycle error and relays it to the chat, once per
// distinct error text. Delivery failures of the report itself are only
// logged; reporting them would recurse.
func (w *Watcher) reportFailure(ctx context.Context, cause error) {
	w.statsMu.Lock()
	w.stats.Failures++
	w.statsMu.Unlock()

	w.log.Error("cycle failed", logx.Err(cause))

	msg := "Сбой в работе программы: " + cause.Error()
	if msg == w.lastFailure {
		w.log.Debug("failure already reported")
		return
	}
	if err := w.sink.Notify(ctx, msg); err != nil {
		w.log.Error("failure report lost", logx.Err(err))
	}
	w.lastFailure = msg
}

// Snapshot returns a copy of the cumulative counters.
func (w *Watcher) Snapshot() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}
