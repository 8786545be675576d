//go:build unix

package dump

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
)

// stubTool installs a fake executable on PATH for the test.
func stubTool(t *testing.T, name, script string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestBackupCompressesStdout(t *testing.T) {
	stubTool(t, "mariadb-dump", `echo "-- dump of $MYSQL_PWD"; echo "CREATE TABLE t (id INT);"`)

	dest := filepath.Join(t.TempDir(), "website_db-30-08-2026-1.sql.gz")
	engine := &Engine{}

	result, err := engine.Backup(context.Background(), Target{
		Host: "db1", Port: 3306, User: "backup", Password: "hunter2",
	}, "website_db", dest)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	if result.Path != dest {
		t.Errorf("Result.Path = %q, want %q", result.Path, dest)
	}

	if result.Bytes <= 0 {
		t.Errorf("Result.Bytes = %d, want > 0", result.Bytes)
	}

	file, err := os.Open(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		t.Fatalf("backup file is not gzip: %v", err)
	}

	content, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}

	// The stub echoes MYSQL_PWD, proving the password went through the env.
	if !strings.Contains(string(content), "dump of hunter2") {
		t.Errorf("decompressed content = %q", content)
	}

	if !strings.Contains(string(content), "CREATE TABLE") {
		t.Errorf("decompressed content missing dump body: %q", content)
	}
}

func TestBackupFailureRemovesPartialFile(t *testing.T) {
	stubTool(t, "mariadb-dump", `echo "partial output"; echo "Access denied for user" >&2; exit 2`)

	dest := filepath.Join(t.TempDir(), "website_db-30-08-2026-1.sql.gz")
	engine := &Engine{}

	_, err := engine.Backup(context.Background(), Target{
		Host: "db1", Port: 3306, User: "backup", Password: "wrong",
	}, "website_db", dest)
	if err == nil {
		t.Fatal("Backup() expected error")
	}

	var cliErr *clierrors.CLIError
	if !clierrors.As(err, &cliErr) {
		t.Fatalf("Backup() error type = %T", err)
	}

	if cliErr.Code != clierrors.ExitExecution {
		t.Errorf("error code = %d, want %d", cliErr.Code, clierrors.ExitExecution)
	}

	if !strings.Contains(cliErr.Hint, "user and password") {
		t.Errorf("access-denied stderr not classified, hint = %q", cliErr.Hint)
	}

	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("partial backup file left behind")
	}
}

func TestBackupTimeout(t *testing.T) {
	stubTool(t, "mariadb-dump", `sleep 5`)

	dest := filepath.Join(t.TempDir(), "website_db-30-08-2026-1.sql.gz")
	engine := &Engine{}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := engine.Backup(ctx, Target{Host: "db1", Port: 3306, User: "backup"}, "website_db", dest)
	if err == nil {
		t.Fatal("Backup() expected timeout error")
	}

	var cliErr *clierrors.CLIError
	if !clierrors.As(err, &cliErr) || cliErr.Code != clierrors.ExitTimeout {
		t.Errorf("Backup() error = %v, want timeout CLIError", err)
	}

	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("partial backup file left behind after timeout")
	}
}

func TestBackupToolMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	engine := &Engine{}

	_, err := engine.Backup(context.Background(), Target{Host: "db1", Port: 3306, User: "backup"},
		"website_db", filepath.Join(t.TempDir(), "out.sql.gz"))
	if err == nil {
		t.Fatal("Backup() expected error with empty PATH")
	}

	var cliErr *clierrors.CLIError
	if !clierrors.As(err, &cliErr) || cliErr.Code != clierrors.ExitConfig {
		t.Errorf("Backup() error = %v, want tool-not-found CLIError", err)
	}
}

func TestRestoreStreamsDecompressedInput(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "received.sql")
	stubTool(t, "mariadb", `cat > `+sink)

	src := filepath.Join(t.TempDir(), "website_db-30-08-2026-1.sql.gz")

	file, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}

	gz := gzip.NewWriter(file)
	if _, err := gz.Write([]byte("INSERT INTO t VALUES (1);\n")); err != nil {
		t.Fatal(err)
	}

	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	if err := file.Close(); err != nil {
		t.Fatal(err)
	}

	engine := &Engine{}

	if err := engine.Restore(context.Background(), Target{
		Host: "db1", Port: 3306, User: "backup", Password: "pw",
	}, "website_db", src); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	received, err := os.ReadFile(sink)
	if err != nil {
		t.Fatal(err)
	}

	if got := string(received); got != "INSERT INTO t VALUES (1);\n" {
		t.Errorf("restore input = %q", got)
	}
}

func TestRestoreFailure(t *testing.T) {
	stubTool(t, "mariadb", `echo "ERROR 1049 (42000): Unknown database" >&2; exit 1`)

	src := filepath.Join(t.TempDir(), "website_db-30-08-2026-1.sql.gz")

	file, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}

	gz := gzip.NewWriter(file)
	gz.Write([]byte("SELECT 1;\n"))
	gz.Close()
	file.Close()

	engine := &Engine{}

	err = engine.Restore(context.Background(), Target{Host: "db1", Port: 3306, User: "backup"}, "website_db", src)
	if err == nil {
		t.Fatal("Restore() expected error")
	}

	if !strings.Contains(err.Error(), "Unknown database") {
		t.Errorf("Restore() error = %v, want stderr passed through", err)
	}
}
