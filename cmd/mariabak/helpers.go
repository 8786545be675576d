package main

import (
	"context"
	"fmt"

	"github.com/mariabak-dev/mariabak/internal/backup"
	"github.com/mariabak-dev/mariabak/internal/config"
	"github.com/mariabak-dev/mariabak/internal/dump"
	"github.com/mariabak-dev/mariabak/internal/notify"
	"github.com/mariabak-dev/mariabak/internal/observability"
	"github.com/mariabak-dev/mariabak/internal/output"
	"github.com/mariabak-dev/mariabak/internal/retention"
	"github.com/mariabak-dev/mariabak/internal/store"
)

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// buildRunner assembles the backup pipeline from a loaded config. The output
// writer and logger come from ctx.
func buildRunner(ctx context.Context, cfg *config.Config) *backup.Runner {
	out := output.FromContext(ctx)
	logger := observability.FromContext(ctx)
	st := store.New(cfg.Storage.Path)

	return &backup.Runner{
		Config:   cfg,
		Store:    st,
		Engine:   &dump.Engine{},
		Notifier: notify.New(cfg.Discord, logger),
		Pruner: &retention.Pruner{
			Store:  st,
			Logger: logger,
			Out:    out,
		},
		Out:    out,
		Logger: logger,
	}
}

// formatSize renders a byte count for tables.
func formatSize(bytes int64) string {
	const unit = 1024

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
