package reporter

import (
	"context"
	"strings"
	"testing"
	"time"

	"hwbot/internal/watcher"
	"hwbot/pkg/logx"
)

type fakeSource struct {
	stats watcher.Stats
}

func (f *fakeSource) Snapshot() watcher.Stats { return f.stats }

type fakeSink struct {
	texts []string
}

func (f *fakeSink) Notify(ctx context.Context, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func TestEmitReportsDeltaSinceLastDigest(t *testing.T) {
	t.Parallel()
	src := &fakeSource{stats: watcher.Stats{
		Cycles:    10,
		Sent:      2,
		Failures:  1,
		LastCycle: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	sink := &fakeSink{}
	s := New(Config{Enabled: true, Schedule: "@daily"}, src, sink, logx.Nop())

	s.emit()
	if len(sink.texts) != 1 {
		t.Fatalf("sent %d digests, want 1", len(sink.texts))
	}
	if !strings.Contains(sink.texts[0], "10 cycles") || !strings.Contains(sink.texts[0], "2 notifications sent") {
		t.Fatalf("unexpected digest: %q", sink.texts[0])
	}

	// Second digest covers only the difference.
	src.stats.Cycles = 16
	src.stats.Sent = 2
	s.emit()
	if got := sink.texts[1]; !strings.Contains(got, "6 cycles") || !strings.Contains(got, "0 notifications sent") {
		t.Fatalf("unexpected second digest: %q", got)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Schedule: "every now and then"}, &fakeSource{}, &fakeSink{}, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestDisabledDigestDoesNotStart(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: false, Schedule: "@daily"}, &fakeSource{}, &fakeSink{}, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	s.Stop() // no-op, must not panic
}

func TestFormatDigestNeverRanYet(t *testing.T) {
	t.Parallel()
	got := formatDigest(watcher.Stats{}, time.Time{})
	if !strings.Contains(got, "last cycle never") {
		t.Fatalf("unexpected digest: %q", got)
	}
}
