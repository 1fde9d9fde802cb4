package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"shiftclock/compliance"
	"shiftclock/config"
	"shiftclock/session"
	"shiftclock/storage"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func newTestApp(t *testing.T, clock *stepClock) *app {
	t.Helper()

	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "shiftclock.db"), storage.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	profile, err := compliance.NewProfile("employee", "de-by")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}

	cfg := &config.Config{}
	cfg.User.ID = "tester"

	return &app{
		cfg:     cfg,
		profile: profile,
		store:   store,
		log:     zerolog.Nop(),
		loc:     time.UTC,
		now:     clock.Now,
	}
}

func TestApplySessionOpWorkday(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	a := newTestApp(t, clock)
	ctx := context.Background()

	controller, err := a.controller(ctx)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}

	var out bytes.Buffer
	if err := applySessionOp(ctx, &out, a, controller, session.OpStartWork); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(out.String(), "Started work at 08:00.") {
		t.Fatalf("unexpected start output: %q", out.String())
	}

	clock.now = clock.now.Add(4 * time.Hour)
	out.Reset()
	if err := applySessionOp(ctx, &out, a, controller, session.OpToggleBreak); err != nil {
		t.Fatalf("break: %v", err)
	}
	if !strings.Contains(out.String(), "On break since 12:00.") {
		t.Fatalf("unexpected break output: %q", out.String())
	}

	clock.now = clock.now.Add(30 * time.Minute)
	out.Reset()
	if err := applySessionOp(ctx, &out, a, controller, session.OpToggleBreak); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !strings.Contains(out.String(), "Back to work at 12:30.") {
		t.Fatalf("unexpected resume output: %q", out.String())
	}

	clock.now = clock.now.Add(4 * time.Hour)
	out.Reset()
	if err := applySessionOp(ctx, &out, a, controller, session.OpStopWork); err != nil {
		t.Fatalf("stop: %v", err)
	}
	text := out.String()
	for _, want := range []string{"Stopped at 16:30.", "State:   idle", "Worked:  8h 00m", "Breaks:  30m", "Compliant: yes"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in stop output:\n%s", want, text)
		}
	}

	entries, err := a.store.ListDay(ctx, "tester", "2026-03-02")
	if err != nil {
		t.Fatalf("list day: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 stored entries, got %d", len(entries))
	}
}

func TestApplySessionOpNoOpWhenIdle(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	a := newTestApp(t, clock)
	ctx := context.Background()

	controller, err := a.controller(ctx)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}

	var out bytes.Buffer
	if err := applySessionOp(ctx, &out, a, controller, session.OpStopWork); err != nil {
		t.Fatalf("stop while idle: %v", err)
	}
	if strings.TrimSpace(out.String()) != "Nothing to do: session is idle." {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestApplySessionOpStrictRejects(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	a := newTestApp(t, clock)
	ctx := context.Background()

	controller, err := a.controller(ctx, session.WithStrictTransitions())
	if err != nil {
		t.Fatalf("controller: %v", err)
	}

	var out bytes.Buffer
	if err := applySessionOp(ctx, &out, a, controller, session.OpToggleBreak); err == nil {
		t.Fatalf("expected strict toggle while idle to fail")
	}
	if controller.State() != session.Idle {
		t.Fatalf("expected idle, got %s", controller.State())
	}
}

func TestApplySessionOpUnknown(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	a := newTestApp(t, clock)

	controller, err := a.controller(context.Background())
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	if err := applySessionOp(context.Background(), &bytes.Buffer{}, a, controller, session.Op("jump")); err == nil {
		t.Fatalf("expected error for unknown op")
	}
}

func TestDescribeResult(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)
	tests := []struct {
		name   string
		result session.Result
		want   string
	}{
		{name: "no-op", result: session.Result{Before: session.Working, After: session.Working}, want: "Nothing to do: session is working."},
		{name: "start", result: session.Result{Applied: true, Before: session.Idle, After: session.Working}, want: "Started work at 09:05."},
		{name: "resume", result: session.Result{Applied: true, Before: session.OnBreak, After: session.Working}, want: "Back to work at 09:05."},
		{name: "break", result: session.Result{Applied: true, Before: session.Working, After: session.OnBreak}, want: "On break since 09:05."},
		{name: "stop", result: session.Result{Applied: true, Before: session.Working, After: session.Idle}, want: "Stopped at 09:05."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeResult(tt.result, now); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDetectExportFormat(t *testing.T) {
	if got := detectExportFormat("./report.xlsx"); got != "excel" {
		t.Fatalf("expected excel, got %q", got)
	}
	if got := detectExportFormat("./entries.csv"); got != "csv" {
		t.Fatalf("expected csv, got %q", got)
	}
	if got := detectExportFormat("./entries"); got != "csv" {
		t.Fatalf("expected csv default, got %q", got)
	}
}
