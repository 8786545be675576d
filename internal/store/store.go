// Package store manages the on-disk backup layout.
//
// Backups live at <root>/<host>/<db>-<DD-MM-YYYY>-<N>.sql.gz, where N is a
// per-day sequence number starting at 1. The dated pattern keeps databases
// that share a name prefix from matching each other's files.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
)

// Ext is the backup file extension.
const Ext = ".sql.gz"

// dateLayout is the DD-MM-YYYY date segment in backup names.
const dateLayout = "02-01-2006"

// datePattern matches the DD-MM-YYYY segment in a glob.
const datePattern = "[0-9][0-9]-[0-9][0-9]-[0-9][0-9][0-9][0-9]"

// Backup describes one backup file on disk.
type Backup struct {
	Host    string    `json:"host"`
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Store reads and names backups under a root directory.
type Store struct {
	root string
}

// New creates a Store rooted at the given directory.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// HostDir returns the backup directory for a host.
func (s *Store) HostDir(host string) string {
	return filepath.Join(s.root, host)
}

// NextBackupPath allocates the path for a new backup of db on host, creating
// the host directory. The sequence number continues from existing same-day
// backups so multiple runs per day never collide.
func (s *Store) NextBackupPath(host, db string, now time.Time) (string, error) {
	hostDir := s.HostDir(host)
	if err := os.MkdirAll(hostDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	date := now.Format(dateLayout)

	existing, err := filepath.Glob(filepath.Join(hostDir, db+"-"+date+"-*"+Ext))
	if err != nil {
		return "", fmt.Errorf("scan existing backups: %w", err)
	}

	n := 1

	for _, path := range existing {
		if seq, ok := sequenceOf(filepath.Base(path)); ok && seq >= n {
			n = seq + 1
		}
	}

	return filepath.Join(hostDir, fmt.Sprintf("%s-%s-%d%s", db, date, n, Ext)), nil
}

// ManagedBackups returns the backups of db on host that follow the managed
// naming scheme, newest first by modification time.
func (s *Store) ManagedBackups(host, db string) ([]Backup, error) {
	hostDir := s.HostDir(host)

	matches, err := filepath.Glob(filepath.Join(hostDir, db+"-"+datePattern+"-*"+Ext))
	if err != nil {
		return nil, fmt.Errorf("scan backups: %w", err)
	}

	backups := make([]Backup, 0, len(matches))

	for _, path := range matches {
		info, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}

		backups = append(backups, Backup{
			Host:    host,
			Name:    filepath.Base(path),
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime.After(backups[j].ModTime)
	})

	return backups, nil
}

// HostArchiveSize sums the size of all *.sql.gz files in a host directory,
// managed or not.
func (s *Store) HostArchiveSize(host string) (int64, error) {
	matches, err := filepath.Glob(filepath.Join(s.HostDir(host), "*"+Ext))
	if err != nil {
		return 0, fmt.Errorf("scan host directory: %w", err)
	}

	var total int64

	for _, path := range matches {
		if info, statErr := os.Stat(path); statErr == nil {
			total += info.Size()
		}
	}

	return total, nil
}

// List returns every backup across all hosts, sorted by host then name.
// A missing storage root yields an empty list.
func (s *Store) List() ([]Backup, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read storage root: %w", err)
	}

	var backups []Backup

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		host := entry.Name()

		matches, globErr := filepath.Glob(filepath.Join(s.HostDir(host), "*"+Ext))
		if globErr != nil {
			return nil, fmt.Errorf("scan host %s: %w", host, globErr)
		}

		sort.Strings(matches)

		for _, path := range matches {
			info, statErr := os.Stat(path)
			if statErr != nil {
				continue
			}

			backups = append(backups, Backup{
				Host:    host,
				Name:    filepath.Base(path),
				Path:    path,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
	}

	return backups, nil
}

// Resolve turns a parsed backup reference into the file path, verifying the
// file exists.
func (s *Store) Resolve(host, name string) (string, error) {
	path := filepath.Join(s.HostDir(host), name)

	if _, err := os.Stat(path); err != nil {
		return "", clierrors.BackupNotFound(path)
	}

	return path, nil
}

// ParseRef splits a host/backup-name reference. The extension is optional;
// the returned name always carries it.
func ParseRef(ref string) (host, name string, err error) {
	parts := strings.Split(ref, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", clierrors.InvalidBackupRef(ref)
	}

	host, name = parts[0], parts[1]
	if !strings.HasSuffix(name, Ext) {
		name += Ext
	}

	return host, name, nil
}

// DatabaseFromName extracts the database name from a backup file name
// (the segment before the first dash).
func DatabaseFromName(name string) string {
	base := strings.TrimSuffix(name, Ext)
	if idx := strings.Index(base, "-"); idx > 0 {
		return base[:idx]
	}

	return base
}

// sequenceOf parses the trailing sequence number from a backup file name.
func sequenceOf(name string) (int, bool) {
	base := strings.TrimSuffix(name, Ext)

	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return 0, false
	}

	seq, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0, false
	}

	return seq, true
}
