package main

import (
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mariabak-dev/mariabak/internal/output"
	"github.com/mariabak-dev/mariabak/internal/store"
)

func newListCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List existing backups",
		Long: `List the backup files in the storage directory, grouped by host.

Backups are referenced as host/backup-name, e.g. for 'mariabak restore'.`,
		Example: `  mariabak list
  mariabak list --host db1.example.com
  mariabak list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			backups, err := store.New(cfg.Storage.Path).List()
			if err != nil {
				return err
			}

			if host != "" {
				filtered := backups[:0]

				for _, b := range backups {
					if b.Host == host {
						filtered = append(filtered, b)
					}
				}

				backups = filtered
			}

			if out.JSON {
				if backups == nil {
					backups = []store.Backup{}
				}

				return out.PrintJSON(backups)
			}

			if len(backups) == 0 {
				out.Info("No backups found in %s", cfg.Storage.Path)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			defer w.Flush()

			printRow(w, "HOST", "BACKUP", "SIZE", "MODIFIED")

			for _, b := range backups {
				printRow(w, b.Host, b.Name, formatSize(b.Size), b.ModTime.Format("2006-01-02 15:04"))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Only list backups for this host")

	return cmd
}

func printRow(w *tabwriter.Writer, cols ...string) {
	for i, col := range cols {
		if i > 0 {
			w.Write([]byte("\t"))
		}

		w.Write([]byte(col))
	}

	w.Write([]byte("\n"))
}
