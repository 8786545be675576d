package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeBackup(t *testing.T, path string, size int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, make([]byte, size), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestNextBackupPath(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{
			name: "first of the day",
			want: "website_db-30-08-2026-1.sql.gz",
		},
		{
			name:     "continues the sequence",
			existing: []string{"website_db-30-08-2026-1.sql.gz", "website_db-30-08-2026-2.sql.gz"},
			want:     "website_db-30-08-2026-3.sql.gz",
		},
		{
			name:     "other days do not advance the sequence",
			existing: []string{"website_db-29-08-2026-5.sql.gz"},
			want:     "website_db-30-08-2026-1.sql.gz",
		},
		{
			name:     "other databases do not advance the sequence",
			existing: []string{"analytics_db-30-08-2026-4.sql.gz"},
			want:     "website_db-30-08-2026-1.sql.gz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			s := New(root)

			for _, name := range tt.existing {
				writeBackup(t, filepath.Join(root, "db1", name), 1)
			}

			got, err := s.NextBackupPath("db1", "website_db", now)
			if err != nil {
				t.Fatalf("NextBackupPath() error = %v", err)
			}

			if want := filepath.Join(root, "db1", tt.want); got != want {
				t.Errorf("NextBackupPath() = %q, want %q", got, want)
			}
		})
	}
}

func TestManagedBackupsIgnoresForeignFiles(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	writeBackup(t, filepath.Join(root, "db1", "website_db-30-08-2026-1.sql.gz"), 1)
	writeBackup(t, filepath.Join(root, "db1", "website_db-manual.sql.gz"), 1)
	writeBackup(t, filepath.Join(root, "db1", "website_db_staging-30-08-2026-1.sql.gz"), 1)
	writeBackup(t, filepath.Join(root, "db1", "notes.txt"), 1)

	backups, err := s.ManagedBackups("db1", "website_db")
	if err != nil {
		t.Fatalf("ManagedBackups() error = %v", err)
	}

	if len(backups) != 1 {
		t.Fatalf("ManagedBackups() returned %d backups, want 1", len(backups))
	}

	if got := backups[0].Name; got != "website_db-30-08-2026-1.sql.gz" {
		t.Errorf("ManagedBackups()[0].Name = %q", got)
	}
}

func TestManagedBackupsNewestFirst(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	oldPath := filepath.Join(root, "db1", "website_db-28-08-2026-1.sql.gz")
	newPath := filepath.Join(root, "db1", "website_db-30-08-2026-1.sql.gz")

	writeBackup(t, oldPath, 1)
	writeBackup(t, newPath, 1)

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatal(err)
	}

	backups, err := s.ManagedBackups("db1", "website_db")
	if err != nil {
		t.Fatalf("ManagedBackups() error = %v", err)
	}

	if len(backups) != 2 {
		t.Fatalf("ManagedBackups() returned %d backups, want 2", len(backups))
	}

	if backups[0].Path != newPath {
		t.Errorf("first backup = %q, want newest %q", backups[0].Path, newPath)
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref      string
		wantHost string
		wantName string
		wantErr  bool
	}{
		{ref: "db1/website_db-30-08-2026-1.sql.gz", wantHost: "db1", wantName: "website_db-30-08-2026-1.sql.gz"},
		{ref: "db1/website_db-30-08-2026-1", wantHost: "db1", wantName: "website_db-30-08-2026-1.sql.gz"},
		{ref: "no-slash", wantErr: true},
		{ref: "/name-only", wantErr: true},
		{ref: "host-only/", wantErr: true},
		{ref: "too/many/parts", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			host, name, err := ParseRef(tt.ref)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRef(%q) expected error, got %q/%q", tt.ref, host, name)
				}

				return
			}

			if err != nil {
				t.Fatalf("ParseRef(%q) error = %v", tt.ref, err)
			}

			if host != tt.wantHost || name != tt.wantName {
				t.Errorf("ParseRef(%q) = %q, %q; want %q, %q", tt.ref, host, name, tt.wantHost, tt.wantName)
			}
		})
	}
}

func TestDatabaseFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "website_db-30-08-2026-1.sql.gz", want: "website_db"},
		{name: "db-30-08-2026-2.sql.gz", want: "db"},
		{name: "plainname.sql.gz", want: "plainname"},
	}

	for _, tt := range tests {
		if got := DatabaseFromName(tt.name); got != tt.want {
			t.Errorf("DatabaseFromName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolveMissingFile(t *testing.T) {
	s := New(t.TempDir())

	if _, err := s.Resolve("db1", "website_db-30-08-2026-1.sql.gz"); err == nil {
		t.Error("Resolve() expected error for missing file")
	}
}

func TestListEmptyRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"))

	backups, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(backups) != 0 {
		t.Errorf("List() returned %d backups, want 0", len(backups))
	}
}
