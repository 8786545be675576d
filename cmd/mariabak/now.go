package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mariabak-dev/mariabak/internal/config"
	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
	"github.com/mariabak-dev/mariabak/internal/output"
)

func newNowCmd() *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "now [host]",
		Short: "Run backups immediately",
		Long: `Back up all configured databases right now, ignoring schedules.

With a host argument, only that server's databases are backed up.
Use --database to narrow down to a single database.`,
		Example: `  mariabak now
  mariabak now db1.example.com
  mariabak now --database website_db
  mariabak now db1.example.com --database website_db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if len(cfg.Servers) == 0 {
				return clierrors.NoServers()
			}

			host := ""
			if len(args) == 1 {
				host = args[0]
			}

			targets, err := selectTargets(cfg, host, database)
			if err != nil {
				return err
			}

			runner := buildRunner(ctx, cfg)

			// One dump at a time, so a database host never serves two at once.
			failed := 0
			for _, target := range targets {
				if err := runner.RunDatabase(ctx, target.server, target.db); err != nil {
					failed++
				}
			}

			return reportOutcome(out, len(targets), failed)
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Back up only this database")

	return cmd
}

type backupTarget struct {
	server config.ServerConfig
	db     config.DatabaseConfig
}

// selectTargets resolves the host argument and --database filter to the
// list of databases to back up. An empty host means every server; an
// empty database means every database. A filter that matches nothing is
// an error rather than a silent no-op.
func selectTargets(cfg *config.Config, host, database string) ([]backupTarget, error) {
	servers := cfg.Servers

	if host != "" {
		server, ok := cfg.ServerFor(host)
		if !ok {
			return nil, clierrors.ServerNotFound(host)
		}

		servers = []config.ServerConfig{server}
	}

	var targets []backupTarget

	for _, server := range servers {
		for _, db := range server.Databases {
			if database != "" && db.Name != database {
				continue
			}

			targets = append(targets, backupTarget{server: server, db: db})
		}
	}

	if len(targets) == 0 {
		where := "any server"
		if host != "" {
			where = host
		}

		return nil, &clierrors.CLIError{
			Message: fmt.Sprintf("Database %s is not configured on %s", database, where),
			Hint:    "Check the server's 'databases' list in config.yml",
			Code:    clierrors.ExitConfig,
		}
	}

	return targets, nil
}

// reportOutcome summarizes a backup run and returns an error when any
// backup failed, so the exit code reflects the run.
func reportOutcome(out *output.Writer, ran, failed int) error {
	if failed == 0 {
		out.Success("All %d backup(s) completed", ran)
		return nil
	}

	return &clierrors.CLIError{
		Message: fmt.Sprintf("%d of %d backup(s) failed", failed, ran),
		Hint:    "See the messages above, or run 'mariabak doctor'",
		Code:    clierrors.ExitExecution,
	}
}
