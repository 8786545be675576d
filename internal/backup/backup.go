// Package backup orchestrates the per-database backup pipeline: resolve the
// password, allocate the next backup file, dump and compress, then notify
// and prune on success or notify and clean up on failure.
package backup

import (
	"context"
	"log/slog"
	"time"

	"github.com/mariabak-dev/mariabak/internal/config"
	"github.com/mariabak-dev/mariabak/internal/dump"
	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
	"github.com/mariabak-dev/mariabak/internal/notify"
	"github.com/mariabak-dev/mariabak/internal/observability"
	"github.com/mariabak-dev/mariabak/internal/output"
	"github.com/mariabak-dev/mariabak/internal/retention"
	"github.com/mariabak-dev/mariabak/internal/secrets"
	"github.com/mariabak-dev/mariabak/internal/store"
)

// Runner executes backups for configured servers.
type Runner struct {
	Config   *config.Config
	Store    *store.Store
	Engine   *dump.Engine
	Notifier *notify.Notifier
	Pruner   *retention.Pruner
	Out      *output.Writer
	Logger   *slog.Logger

	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}

	return time.Now()
}

// RunDatabase backs up one database from one server.
func (r *Runner) RunDatabase(ctx context.Context, server config.ServerConfig, db config.DatabaseConfig) error {
	ctx, span := observability.Tracer("backup").Start(ctx, "backup.RunDatabase")
	defer span.End()

	source, password := secrets.Resolve(server.Host, server.Password)
	if source == secrets.SourceNone {
		err := clierrors.PasswordMissing(server.Host, secrets.EnvVar(server.Host))
		r.Out.Failure("%s", err.Message)
		r.Notifier.BackupFailed(ctx, server.Host, db.Name, err)

		return err
	}

	destPath, err := r.Store.NextBackupPath(server.Host, db.Name, r.now())
	if err != nil {
		r.Out.Failure("Backup failed: %v", err)
		r.Notifier.BackupFailed(ctx, server.Host, db.Name, err)

		return err
	}

	timeout := time.Duration(db.Timeout) * time.Second

	r.Out.Info("Backing up %s from %s to %s (timeout: %s)...", db.Name, server.Host, destPath, timeout)
	r.Logger.Info("backup started",
		slog.String("host", server.Host),
		slog.String("database", db.Name),
		slog.String("file", destPath),
		slog.String("password_source", string(source)),
		slog.Duration("timeout", timeout),
	)

	target := dump.Target{
		Host:      server.Host,
		Port:      server.Port,
		User:      server.User,
		Password:  password,
		Container: server.Container,
	}

	dumpCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := r.Engine.Backup(dumpCtx, target, db.Name, destPath)
	if err != nil {
		r.Out.Failure("Backup failed: %v", err)
		r.Logger.Error("backup failed",
			slog.String("host", server.Host),
			slog.String("database", db.Name),
			slog.String("error", err.Error()),
		)
		r.Notifier.BackupFailed(ctx, server.Host, db.Name, err)

		return err
	}

	r.Out.Success("Backup completed: %s", result.Path)
	r.Logger.Info("backup completed",
		slog.String("host", server.Host),
		slog.String("database", db.Name),
		slog.String("file", result.Path),
		slog.Int64("bytes", result.Bytes),
		slog.Duration("duration", result.Duration),
	)

	r.Notifier.BackupSucceeded(ctx, server.Host, db.Name)

	policy := r.Config.Retention.PolicyFor(db.Name)
	if _, pruneErr := r.Pruner.Apply(server.Host, db.Name, policy); pruneErr != nil {
		// The backup itself succeeded; report pruning trouble without failing the run.
		r.Out.Warning("Retention pruning failed: %v", pruneErr)
		r.Logger.Error("retention pruning failed",
			slog.String("host", server.Host),
			slog.String("database", db.Name),
			slog.String("error", pruneErr.Error()),
		)
	}

	return nil
}
