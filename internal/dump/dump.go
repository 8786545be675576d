// Package dump runs mariadb-dump and mariadb against configured servers,
// either directly or through docker exec into a running container.
//
// Dumps stream through an in-process gzip writer into the target file, so a
// failed or interrupted dump never leaves an uncompressed intermediate
// behind; the partial .sql.gz itself is removed on failure.
package dump

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
	"github.com/mariabak-dev/mariabak/internal/observability"
)

// Target identifies one MariaDB server to dump from or restore to.
type Target struct {
	Host      string
	Port      int
	User      string
	Password  string
	Container string // when set, commands run via docker exec
}

// Result describes a completed dump.
type Result struct {
	Path     string
	Bytes    int64 // compressed bytes written
	Duration time.Duration
}

// Engine executes dumps and restores.
type Engine struct{}

// Backup dumps the database into a gzip file at destPath. On any failure the
// partial file is removed. The caller bounds the dump with ctx.
func (e *Engine) Backup(ctx context.Context, target Target, database, destPath string) (Result, error) {
	ctx, span := observability.Tracer("dump").Start(ctx, "dump.Backup")
	defer span.End()

	argv := dumpArgv(target, database)

	if _, err := exec.LookPath(argv[0]); err != nil {
		return Result{}, toolNotFound(argv[0])
	}

	file, err := os.Create(destPath)
	if err != nil {
		return Result{}, fmt.Errorf("create backup file: %w", err)
	}

	counter := &countingWriter{w: file}
	gz := gzip.NewWriter(counter)

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // G204: argv is built from operator config
	cmd.Stdout = gz
	cmd.Stderr = &stderr

	if target.Container == "" {
		// docker exec mode passes MYSQL_PWD via -e instead.
		cmd.Env = append(os.Environ(), "MYSQL_PWD="+target.Password)
	}

	startedAt := time.Now()
	runErr := cmd.Run()
	duration := time.Since(startedAt)

	closeErr := errors.Join(gz.Close(), file.Close())

	if runErr != nil {
		_ = os.Remove(destPath)

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, clierrors.BackupTimedOut(database, duration.Round(time.Second).String())
		}

		exitCode := 1

		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		return Result{}, clierrors.BackupFailed(database, exitCode, strings.TrimSpace(stderr.String()))
	}

	if closeErr != nil {
		_ = os.Remove(destPath)
		return Result{}, fmt.Errorf("compress backup: %w", closeErr)
	}

	return Result{Path: destPath, Bytes: counter.n, Duration: duration}, nil
}

// Restore streams the gzip backup at srcPath into the database.
func (e *Engine) Restore(ctx context.Context, target Target, database, srcPath string) error {
	ctx, span := observability.Tracer("dump").Start(ctx, "dump.Restore")
	defer span.End()

	argv := restoreArgv(target, database)

	if _, err := exec.LookPath(argv[0]); err != nil {
		return toolNotFound(argv[0])
	}

	file, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("read backup file: %w", err)
	}
	defer gz.Close()

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // G204: argv is built from operator config
	cmd.Stdin = gz
	cmd.Stderr = &stderr

	if target.Container == "" {
		cmd.Env = append(os.Environ(), "MYSQL_PWD="+target.Password)
	}

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}

		return clierrors.RestoreFailed(database, errors.New(msg))
	}

	return nil
}

// dumpArgv builds the mariadb-dump command line for a target.
func dumpArgv(t Target, database string) []string {
	base := []string{
		"mariadb-dump",
		"-h", t.Host,
		"-P", strconv.Itoa(t.Port),
		"-u", t.User,
		database,
	}

	if t.Container == "" {
		return base
	}

	// No -t: this is not an interactive shell.
	return append([]string{"docker", "exec", "-e", "MYSQL_PWD=" + t.Password, t.Container}, base...)
}

// restoreArgv builds the mariadb client command line for a target.
func restoreArgv(t Target, database string) []string {
	if t.Container != "" {
		// -i for the piped stdin, but not -t.
		return []string{
			"docker", "exec", "-i",
			"-e", "MYSQL_PWD=" + t.Password,
			t.Container,
			"mariadb", "-u", t.User, database,
		}
	}

	return []string{
		"mariadb",
		"-h", t.Host,
		"-P", strconv.Itoa(t.Port),
		"-u", t.User,
		database,
	}
}

func toolNotFound(tool string) error {
	if tool == "docker" {
		return clierrors.DumpToolNotFound("docker").
			WithHint("Install docker, or remove 'container' from the server to dump directly")
	}

	return clierrors.DumpToolNotFound(tool)
}

// countingWriter counts bytes passed through to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}
