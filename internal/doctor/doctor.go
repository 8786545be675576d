// Package doctor provides diagnostic checks for mariabak health.
//
// This package implements a check framework that validates:
//   - Config file readability and schema
//   - Storage directory writability
//   - mariadb-dump / mariadb / docker availability for the configured servers
//   - Webhook configuration sanity
//   - CLI version against the latest release
package doctor

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mariabak-dev/mariabak/internal/buildinfo"
	"github.com/mariabak-dev/mariabak/internal/config"
	"github.com/mariabak-dev/mariabak/internal/update"
)

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// Result holds the outcome of a single check.
type Result struct {
	Name    string
	Status  Status
	Message string
	Detail  string // Optional additional detail
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a diagnostic runner with the default checks.
func New() *Runner {
	r := &Runner{}

	r.AddCheck("Configuration", checkConfig)
	r.AddCheck("Storage", checkStorage)
	r.AddCheck("Dump tools", checkDumpTools)
	r.AddCheck("Webhook", checkWebhook)
	r.AddCheck("CLI Version", checkCLIVersion)

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

// checkConfig loads and validates the configuration.
func checkConfig(_ context.Context) Result {
	cfg, err := config.Load()
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: "Could not load configuration",
			Detail:  err.Error(),
		}
	}

	if err := cfg.Validate(); err != nil {
		return Result{
			Status:  StatusFail,
			Message: "Configuration is invalid",
			Detail:  err.Error(),
		}
	}

	file := cfg.FileUsed()
	if file == "" {
		return Result{
			Status:  StatusWarn,
			Message: "No config file found (running on defaults)",
			Detail:  "Run 'mariabak config init' to create one",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%d server(s))", file, len(cfg.Servers)),
	}
}

// checkStorage verifies the storage directory can be written.
func checkStorage(_ context.Context) Result {
	cfg, err := config.Load()
	if err != nil {
		return Result{Status: StatusFail, Message: "Could not load configuration", Detail: err.Error()}
	}

	path := cfg.Storage.Path

	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("Cannot create %s", path),
			Detail:  err.Error(),
		}
	}

	probe := filepath.Join(path, ".doctor-probe")

	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("Cannot write to %s", path),
			Detail:  err.Error(),
		}
	}

	_ = os.Remove(probe)

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s is writable", path),
	}
}

// checkDumpTools verifies the dump/restore tools the configured servers need.
func checkDumpTools(ctx context.Context) Result {
	cfg, err := config.Load()
	if err != nil {
		return Result{Status: StatusFail, Message: "Could not load configuration", Detail: err.Error()}
	}

	needsDirect := false
	needsDocker := false

	for _, server := range cfg.Servers {
		if server.Container != "" {
			needsDocker = true
		} else {
			needsDirect = true
		}
	}

	if !needsDirect && !needsDocker {
		return Result{
			Status:  StatusWarn,
			Message: "No servers configured",
		}
	}

	var found []string

	if needsDirect {
		for _, tool := range []string{"mariadb-dump", "mariadb"} {
			path, lookErr := exec.LookPath(tool)
			if lookErr != nil {
				return Result{
					Status:  StatusFail,
					Message: fmt.Sprintf("%s not found in PATH", tool),
					Detail:  "Install mariadb-client, or set 'container' on each server",
				}
			}

			found = append(found, toolVersion(ctx, tool, path))
		}
	}

	if needsDocker {
		path, lookErr := exec.LookPath("docker")
		if lookErr != nil {
			return Result{
				Status:  StatusFail,
				Message: "docker not found in PATH",
				Detail:  "Servers with 'container' set dump through docker exec",
			}
		}

		found = append(found, "docker at "+path)
	}

	return Result{
		Status:  StatusPass,
		Message: strings.Join(found, ", "),
	}
}

// toolVersion returns "tool <version>" or the bare path when the version
// cannot be read.
func toolVersion(ctx context.Context, tool, path string) string {
	out, err := exec.CommandContext(ctx, tool, "--version").Output()
	if err != nil {
		return tool + " at " + path
	}

	version := strings.TrimSpace(string(out))
	if idx := strings.Index(version, "\n"); idx > 0 {
		version = version[:idx]
	}

	return version
}

// checkWebhook sanity-checks the notification configuration.
func checkWebhook(_ context.Context) Result {
	cfg, err := config.Load()
	if err != nil {
		return Result{Status: StatusFail, Message: "Could not load configuration", Detail: err.Error()}
	}

	webhook := cfg.Discord.WebhookURL

	if webhook == "" {
		return Result{
			Status:  StatusPass,
			Message: "Notifications disabled (no webhook_url)",
		}
	}

	if webhook == config.WebhookPlaceholder {
		return Result{
			Status:  StatusWarn,
			Message: "webhook_url is still the starter placeholder",
			Detail:  "Set discord.webhook_url or remove it to disable notifications",
		}
	}

	parsed, parseErr := url.Parse(webhook)
	if parseErr != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return Result{
			Status:  StatusFail,
			Message: "webhook_url is not a valid https URL",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: parsed.Host,
	}
}

// checkCLIVersion checks the CLI version against the latest release.
func checkCLIVersion(ctx context.Context) Result {
	current := buildinfo.Version

	if current == "dev" {
		return Result{
			Status:  StatusWarn,
			Message: "Development build (version check skipped)",
		}
	}

	if update.IsDisabled() {
		return Result{
			Status:  StatusPass,
			Message: fmt.Sprintf("v%s (update checks disabled)", current),
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	updater, err := update.NewUpdater()
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (could not check for updates)", current),
			Detail:  err.Error(),
		}
	}

	info, err := updater.CheckLatest(checkCtx, current)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (could not check for updates)", current),
			Detail:  err.Error(),
		}
	}

	if info.UpdateAvailable {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("v%s (v%s available)", current, info.LatestVersion),
			Detail:  "Run 'mariabak update' to update",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("v%s (latest)", current),
	}
}
