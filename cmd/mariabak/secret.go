package main

import (
	"github.com/spf13/cobra"

	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
	"github.com/mariabak-dev/mariabak/internal/output"
	"github.com/mariabak-dev/mariabak/internal/prompt"
	"github.com/mariabak-dev/mariabak/internal/secrets"
)

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage server passwords in the OS keyring",
		Long: `Store MariaDB passwords in the OS keyring (macOS Keychain, Windows
Credential Manager, Linux Secret Service) instead of config.yml.

Password resolution order: config file, then the MARIABAK_PASSWORD_<HOST>
environment variable, then the keyring.`,
	}

	cmd.AddCommand(newSecretSetCmd())
	cmd.AddCommand(newSecretUnsetCmd())

	return cmd
}

func newSecretSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <host>",
		Short: "Store a password for a host",
		Long: `Prompt for a password and store it in the OS keyring under the host.

When stdin is not a terminal the password is read as a single line, so it
can be piped in from a secret manager.`,
		Example: `  mariabak secret set db1.example.com
  pass show mariadb/db1 | mariabak secret set db1.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			host := args[0]

			password, err := prompt.New(out).Password("Password for " + host)
			if err != nil {
				return err
			}

			if password == "" {
				return &clierrors.CLIError{
					Message: "Password must not be empty",
					Hint:    "Use 'mariabak secret unset' to remove a stored password",
					Code:    clierrors.ExitUsage,
				}
			}

			if err := secrets.Store(host, password); err != nil {
				return err
			}

			out.Success("Password for %s stored in the OS keyring", host)

			return nil
		},
	}
}

func newSecretUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "unset <host>",
		Short:   "Remove the stored password for a host",
		Example: `  mariabak secret unset db1.example.com`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			host := args[0]

			if err := secrets.Delete(host); err != nil {
				return err
			}

			out.Success("Password for %s removed from the OS keyring", host)

			return nil
		},
	}
}
