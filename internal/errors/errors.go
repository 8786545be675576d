// Package errors provides structured CLI error types for mariabak.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for CLI errors.
const (
	ExitSuccess   = 0  // Successful execution
	ExitGeneral   = 1  // General error
	ExitNetwork   = 3  // Network error (webhook, release check)
	ExitConfig    = 4  // Configuration error
	ExitTimeout   = 5  // Dump or restore timeout
	ExitExecution = 6  // Backup/restore execution failure
	ExitUsage     = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// ConfigInvalid returns an error for an unreadable or malformed config file.
func ConfigInvalid(cause error) *CLIError {
	return &CLIError{
		Message: "Invalid configuration",
		Hint:    "Run 'mariabak config path' to locate the file, or 'mariabak config init' to start over",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// ConfigFailed returns an error for configuration write failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your mariabak config directory or run 'mariabak doctor'",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// NoServers returns an error when the config defines no servers.
func NoServers() *CLIError {
	return &CLIError{
		Message: "No servers configured",
		Hint:    "Add a 'servers' section to config.yml, or run 'mariabak config init' for a starter file",
		Code:    ExitConfig,
	}
}

// ServerNotFound returns an error for a host with no server configuration.
func ServerNotFound(host string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("No server configuration found for host: %s", host),
		Hint:    "Check the host part of the backup reference against the 'servers' section",
		Code:    ExitConfig,
	}
}

// InvalidBackupRef returns an error for a malformed backup reference.
func InvalidBackupRef(ref string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Invalid backup reference: %s", ref),
		Hint:    "Use host/backup-name format, as shown by 'mariabak list'",
		Code:    ExitUsage,
	}
}

// BackupNotFound returns an error for a missing backup file.
func BackupNotFound(path string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Backup file not found: %s", path),
		Hint:    "Run 'mariabak list' to see available backups",
		Code:    ExitGeneral,
	}
}

// PasswordMissing returns an error when no password could be resolved for a host.
func PasswordMissing(host, envVar string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("No password available for host: %s", host),
		Hint:    fmt.Sprintf("Set 'password' in config.yml, export %s, or run 'mariabak secret set %s'", envVar, host),
		Code:    ExitConfig,
	}
}

// KeyringFailed returns an error for OS keyring failures.
func KeyringFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s in the OS keyring", operation),
		Hint:    "Your platform may lack a keyring service; use the config file or environment variable instead",
		Cause:   cause,
		Code:    ExitGeneral,
	}
}

// DumpToolNotFound returns an error when the dump or restore tool is unavailable.
func DumpToolNotFound(tool string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("%s not found", tool),
		Hint:    "Install mariadb-client, or set 'container' on the server to use docker exec",
		Code:    ExitConfig,
	}
}

// BackupTimedOut returns an error for a dump that exceeded its timeout.
func BackupTimedOut(database string, timeout string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Backup of %s timed out after %s", database, timeout),
		Hint:    "Raise 'timeout' for this server or database in config.yml",
		Code:    ExitTimeout,
	}
}

// BackupFailed returns an error for a failed dump, classifying common
// mariadb-dump stderr patterns into specific hints.
func BackupFailed(database string, exitCode int, stderr string) *CLIError {
	msg := fmt.Sprintf("Backup of %s failed", database)
	hint := ""

	switch {
	case containsAny(stderr, "access denied", "1045"):
		hint = "Check the configured user and password for this server"
	case containsAny(stderr, "unknown database", "1049"):
		hint = "The database does not exist on this server; check the 'databases' list"
	case containsAny(stderr, "can't connect", "connection refused", "2002", "2003"):
		hint = "Check the host, port, and that the MariaDB server is reachable"
	case exitCode != 0 && stderr == "":
		hint = "Run with --log-level=debug for more details"
	default:
		if stderr != "" {
			if len(stderr) > 200 {
				stderr = stderr[:200] + "..."
			}

			hint = stderr
		}
	}

	return &CLIError{
		Message: msg,
		Hint:    hint,
		Code:    ExitExecution,
	}
}

// RestoreFailed returns an error for a failed restore.
func RestoreFailed(database string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Restore of %s failed", database),
		Cause:   cause,
		Code:    ExitExecution,
	}
}

// CannotPrompt returns an error when interactive prompts are unavailable.
func CannotPrompt(alternative string) *CLIError {
	return &CLIError{
		Message: "Cannot prompt in non-interactive mode",
		Hint:    alternative,
		Code:    ExitUsage,
	}
}

// containsAny checks if s contains any of the substrings, case-insensitively.
func containsAny(s string, substrings ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrings {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}

	return false
}
