// Package retention prunes old backups according to per-database policies.
//
// Two passes run in order: a count pass keeping only the newest keep_last
// backups, then a size pass deleting oldest-first until the managed total
// fits under max_gb. Files not matching the managed naming scheme are never
// deleted, only reported when they pile up.
package retention

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mariabak-dev/mariabak/internal/config"
	"github.com/mariabak-dev/mariabak/internal/output"
	"github.com/mariabak-dev/mariabak/internal/store"
)

// staleWarnBytes is the threshold of unmanaged archive bytes in a host
// directory that triggers a warning.
const staleWarnBytes = 10 * 1024 * 1024

// Result summarizes one pruning run.
type Result struct {
	DeletedByCount int
	DeletedBySize  int
}

// Pruner applies retention policies against a backup store.
type Pruner struct {
	Store  *store.Store
	Logger *slog.Logger
	Out    *output.Writer
}

// Apply enforces the policy for one database on one host.
// A missing host directory is a no-op.
func (p *Pruner) Apply(host, db string, policy config.RetentionPolicy) (Result, error) {
	var result Result

	if _, err := os.Stat(p.Store.HostDir(host)); os.IsNotExist(err) {
		return result, nil
	}

	backups, err := p.Store.ManagedBackups(host, db)
	if err != nil {
		return result, err
	}

	// Count pass: backups are newest-first, so everything past keep_last goes.
	if len(backups) > policy.KeepLast {
		for _, old := range backups[policy.KeepLast:] {
			if err := os.Remove(old.Path); err != nil {
				return result, fmt.Errorf("delete %s: %w", old.Path, err)
			}

			result.DeletedByCount++

			p.Out.Warning("Deleted old backup (count limit): %s", old.Path)
			p.Logger.Info("backup pruned",
				slog.String("host", host),
				slog.String("database", db),
				slog.String("file", old.Name),
				slog.String("reason", "count limit"),
			)
		}

		backups = backups[:policy.KeepLast]
	}

	var total int64
	for _, b := range backups {
		total += b.Size
	}

	p.warnStale(host, db, total)

	maxBytes := int64(policy.MaxGB * float64(1<<30))

	if len(backups) > 0 && total > maxBytes {
		p.Out.Info("Size limit exceeded for %s (%.2fGB > %.2fGB). Pruning...",
			db, float64(total)/float64(1<<30), policy.MaxGB)
	}

	// Size pass: drop oldest until under the limit.
	for total > maxBytes && len(backups) > 0 {
		oldest := backups[len(backups)-1]
		backups = backups[:len(backups)-1]

		if err := os.Remove(oldest.Path); err != nil {
			return result, fmt.Errorf("delete %s: %w", oldest.Path, err)
		}

		total -= oldest.Size
		result.DeletedBySize++

		p.Out.Warning("Deleted old backup (size limit): %s", oldest.Path)
		p.Logger.Info("backup pruned",
			slog.String("host", host),
			slog.String("database", db),
			slog.String("file", oldest.Name),
			slog.String("reason", "size limit"),
		)
	}

	return result, nil
}

// warnStale reports archives in the host directory this policy does not
// manage, so operators notice leftovers from renamed or removed databases.
func (p *Pruner) warnStale(host, db string, managedTotal int64) {
	hostTotal, err := p.Store.HostArchiveSize(host)
	if err != nil {
		return
	}

	stale := hostTotal - managedTotal
	if stale > staleWarnBytes {
		p.Out.Warning("Note: %.2f MB of other backup files found in %s (not managed by %s policy)",
			float64(stale)/float64(1<<20), p.Store.HostDir(host), db)
	}
}
