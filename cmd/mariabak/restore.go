package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mariabak-dev/mariabak/internal/dump"
	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
	"github.com/mariabak-dev/mariabak/internal/output"
	"github.com/mariabak-dev/mariabak/internal/prompt"
	"github.com/mariabak-dev/mariabak/internal/secrets"
	"github.com/mariabak-dev/mariabak/internal/store"
)

func newRestoreCmd() *cobra.Command {
	var (
		database string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "restore <host/backup-name>",
		Short: "Restore a backup into a database",
		Long: `Restore a backup file into its database, overwriting current contents.

The backup is referenced as host/backup-name, as printed by 'mariabak list'
(the .sql.gz extension is optional). The target database defaults to the
one the backup was taken from; use --database to restore elsewhere.`,
		Example: `  mariabak restore db1.example.com/website_db-30-08-2026-1
  mariabak restore db1.example.com/website_db-30-08-2026-1 --database website_db_staging
  mariabak restore db1.example.com/website_db-30-08-2026-1 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			host, name, err := store.ParseRef(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			server, ok := cfg.ServerFor(host)
			if !ok {
				return clierrors.ServerNotFound(host)
			}

			path, err := store.New(cfg.Storage.Path).Resolve(host, name)
			if err != nil {
				return err
			}

			if database == "" {
				database = store.DatabaseFromName(name)
			}

			if !yes {
				prompter := prompt.New(out)
				if !prompter.CanPrompt() {
					return clierrors.CannotPrompt("Pass --yes to skip the confirmation")
				}

				confirmed, confirmErr := prompter.Confirm(
					fmt.Sprintf("Restore %s into %s on %s? This overwrites current data", name, database, host),
					false,
				)
				if confirmErr != nil {
					return confirmErr
				}

				if !confirmed {
					out.Info("Restore canceled")
					return nil
				}
			}

			source, password := secrets.Resolve(server.Host, server.Password)
			if source == secrets.SourceNone {
				return clierrors.PasswordMissing(server.Host, secrets.EnvVar(server.Host))
			}

			target := dump.Target{
				Host:      server.Host,
				Port:      server.Port,
				User:      server.User,
				Password:  password,
				Container: server.Container,
			}

			restoreCtx, cancel := context.WithTimeout(ctx, time.Duration(server.Timeout)*time.Second)
			defer cancel()

			spin := out.Spinner(fmt.Sprintf("Restoring %s into %s", name, database))
			spin.Start()

			if err := (&dump.Engine{}).Restore(restoreCtx, target, database, path); err != nil {
				spin.StopWithFailure("")
				return err
			}

			spin.StopWithSuccess(fmt.Sprintf("Restored %s into %s on %s", name, database, host))

			return nil
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Target database (defaults to the backup's database)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}
