package scheduler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/mariabak-dev/mariabak/internal/backup"
	"github.com/mariabak-dev/mariabak/internal/config"
	"github.com/mariabak-dev/mariabak/internal/dump"
	"github.com/mariabak-dev/mariabak/internal/notify"
	"github.com/mariabak-dev/mariabak/internal/output"
	"github.com/mariabak-dev/mariabak/internal/retention"
	"github.com/mariabak-dev/mariabak/internal/store"
	"github.com/mariabak-dev/mariabak/internal/terminal"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 8, 30, hour, minute, 0, 0, time.UTC)
}

func TestDueDaily(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		now      time.Time
		last     time.Time
		ran      bool
		want     bool
		wantErr  bool
	}{
		{
			name:     "before the mark",
			schedule: "14:00",
			now:      at(13, 59),
			want:     false,
		},
		{
			name:     "at the mark, never ran",
			schedule: "14:00",
			now:      at(14, 0),
			want:     true,
		},
		{
			name:     "past the mark, never ran",
			schedule: "14:00",
			now:      at(20, 0),
			want:     true,
		},
		{
			name:     "already ran after the mark today",
			schedule: "14:00",
			now:      at(15, 0),
			last:     at(14, 1),
			ran:      true,
			want:     false,
		},
		{
			name:     "last run was yesterday",
			schedule: "14:00",
			now:      at(14, 30),
			last:     at(14, 30).Add(-24 * time.Hour),
			ran:      true,
			want:     true,
		},
		{
			name:     "ran earlier today before the mark",
			schedule: "14:00",
			now:      at(14, 30),
			last:     at(9, 0),
			ran:      true,
			want:     true,
		},
		{
			name:     "invalid schedule",
			schedule: "25:99",
			now:      at(14, 0),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dueDaily(tt.schedule, tt.now, tt.last, tt.ran)

			if tt.wantErr {
				if err == nil {
					t.Fatal("dueDaily() expected error")
				}

				return
			}

			if err != nil {
				t.Fatalf("dueDaily() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("dueDaily() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDueInterval(t *testing.T) {
	now := at(12, 0)

	tests := []struct {
		name  string
		hours int
		last  time.Time
		ran   bool
		want  bool
	}{
		{name: "never ran", hours: 6, want: true},
		{name: "interval elapsed", hours: 6, last: now.Add(-7 * time.Hour), ran: true, want: true},
		{name: "exactly at the interval", hours: 6, last: now.Add(-6 * time.Hour), ran: true, want: true},
		{name: "too soon", hours: 6, last: now.Add(-time.Hour), ran: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dueInterval(tt.hours, now, tt.last, tt.ran); got != tt.want {
				t.Errorf("dueInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDueSchedulePrecedence(t *testing.T) {
	// Daily schedule wins over interval_hours when both are set.
	server := config.ServerConfig{
		Schedule:      "14:00",
		IntervalHours: 1,
	}

	due, err := isDue(server, at(10, 0), at(2, 0), true)
	if err != nil {
		t.Fatalf("isDue() error = %v", err)
	}

	if due {
		t.Error("isDue() = true before the daily mark despite elapsed interval")
	}
}

func TestIsDueNoSchedule(t *testing.T) {
	due, err := isDue(config.ServerConfig{}, at(12, 0), time.Time{}, false)
	if err != nil {
		t.Fatalf("isDue() error = %v", err)
	}

	if due {
		t.Error("isDue() = true for a server with no schedule")
	}
}

// countingWebhook runs a webhook endpoint and signals every delivery.
func countingWebhook(t *testing.T) (*httptest.Server, chan struct{}) {
	t.Helper()

	hits := make(chan struct{}, 16)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- struct{}{}
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Cleanup(server.Close)

	return server, hits
}

// loopScheduler wires a scheduler to a runner whose server has no password,
// so every attempt fails fast and shows up as a webhook failure delivery.
func loopScheduler(t *testing.T, webhookURL string) *Scheduler {
	t.Helper()

	keyring.MockInit()

	cfg := &config.Config{
		Storage:   config.StorageConfig{Path: t.TempDir()},
		Retention: config.RetentionConfig{Default: config.RetentionPolicy{KeepLast: 10, MaxGB: 5}},
		Discord:   config.DiscordConfig{WebhookURL: webhookURL},
		Servers: []config.ServerConfig{
			{
				Host:          "db1.example.com",
				Port:          3306,
				User:          "backup",
				Timeout:       60,
				IntervalHours: 1,
				Databases:     []config.DatabaseConfig{{Name: "website_db", Timeout: 60}},
			},
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var buf bytes.Buffer
	out := output.NewWriter(&buf, &buf, &terminal.Info{NoColor: true})
	st := store.New(cfg.Storage.Path)

	runner := &backup.Runner{
		Config:   cfg,
		Store:    st,
		Engine:   &dump.Engine{},
		Notifier: notify.New(cfg.Discord, logger),
		Pruner:   &retention.Pruner{Store: st, Logger: logger, Out: out},
		Out:      out,
		Logger:   logger,
	}

	return &Scheduler{Config: cfg, Runner: runner, Logger: logger}
}

func TestEvaluateWithoutRun(t *testing.T) {
	webhook, hits := countingWebhook(t)

	sched := loopScheduler(t, webhook.URL)
	sched.Now = func() time.Time { return at(12, 0) }

	// Evaluate on a fresh scheduler, without going through Run.
	sched.Evaluate(context.Background())

	if len(hits) != 1 {
		t.Fatalf("%d backup attempts after first evaluation, want 1", len(hits))
	}
}

func TestEvaluateAdvancesScheduleOnFailure(t *testing.T) {
	webhook, hits := countingWebhook(t)

	sched := loopScheduler(t, webhook.URL)
	sched.Now = func() time.Time { return at(12, 0) }

	ctx := context.Background()

	// The first attempt fails (no password available), but the schedule
	// still advances, so the next tick must not retry.
	sched.Evaluate(ctx)
	sched.Evaluate(ctx)

	if len(hits) != 1 {
		t.Fatalf("%d backup attempts within the interval, want 1", len(hits))
	}

	sched.Now = func() time.Time { return at(14, 0) }
	sched.Evaluate(ctx)

	if len(hits) != 2 {
		t.Errorf("%d backup attempts after the interval elapsed, want 2", len(hits))
	}
}

func TestRunEvaluatesImmediately(t *testing.T) {
	webhook, hits := countingWebhook(t)

	sched := loopScheduler(t, webhook.URL)
	sched.Now = func() time.Time { return at(12, 0) }
	sched.Tick = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	select {
	case <-hits:
	case <-time.After(5 * time.Second):
		t.Fatal("no backup attempt right after starting the loop")
	}

	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
