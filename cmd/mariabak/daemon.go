package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
	"github.com/mariabak-dev/mariabak/internal/observability"
	"github.com/mariabak-dev/mariabak/internal/output"
	"github.com/mariabak-dev/mariabak/internal/scheduler"
)

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled backups in the foreground",
		Long: `Run the backup scheduler until interrupted.

Each server backs up either daily at its 'schedule' time (HH:MM) or every
'interval_hours' hours. Schedules are evaluated once a minute; a past-due
daily schedule fires immediately on startup.

Intended to run under a process supervisor (systemd, docker, etc.).`,
		Example: `  mariabak daemon`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := output.FromContext(ctx)
			logger := observability.FromContext(ctx)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if len(cfg.Servers) == 0 {
				return clierrors.NoServers()
			}

			scheduled := 0

			for _, server := range cfg.Servers {
				if server.Schedule != "" || server.IntervalHours > 0 {
					scheduled++
				}
			}

			if scheduled == 0 {
				return &clierrors.CLIError{
					Message: "No server has a schedule",
					Hint:    "Set 'schedule' (HH:MM) or 'interval_hours' on each server, or use 'mariabak now'",
					Code:    clierrors.ExitConfig,
				}
			}

			out.Info("Backup daemon started (%d server(s), ctrl-c to stop)", len(cfg.Servers))
			logger.Info("daemon started", slog.Int("servers", len(cfg.Servers)))

			sched := &scheduler.Scheduler{
				Config: cfg,
				Runner: buildRunner(ctx, cfg),
				Logger: logger,
			}

			err = sched.Run(ctx)
			if errors.Is(err, context.Canceled) {
				out.Println()
				out.Info("Backup daemon stopped")
				logger.Info("daemon stopped")

				return nil
			}

			return err
		},
	}
}
