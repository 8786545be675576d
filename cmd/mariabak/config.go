package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mariabak-dev/mariabak/internal/config"
	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
	"github.com/mariabak-dev/mariabak/internal/output"
	"github.com/mariabak-dev/mariabak/internal/paths"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mariabak configuration",
		Long: `Manage the mariabak config file.

A config.yml in the working directory takes precedence over the
user-level file; environment variables (MARIABAK_*) override both.`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		local bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a commented starter config file to the user config directory.

Use --local to write ./config.yml instead. Existing files are not
overwritten unless --force is given.`,
		Example: `  mariabak config init
  mariabak config init --local
  mariabak config init --force`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			target := config.LocalConfigFile

			if !local {
				file, err := paths.ConfigFile()
				if err != nil {
					return clierrors.ConfigFailed("resolve the config directory", err)
				}

				target = file
			}

			if _, err := os.Stat(target); err == nil && !force {
				return &clierrors.CLIError{
					Message: fmt.Sprintf("Config file already exists: %s", target),
					Hint:    "Pass --force to overwrite it",
					Code:    clierrors.ExitConfig,
				}
			}

			starter, err := config.Starter()
			if err != nil {
				return clierrors.ConfigFailed("render the starter config", err)
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
				return clierrors.ConfigFailed("create the config directory", err)
			}

			if err := os.WriteFile(target, starter, 0o600); err != nil {
				return clierrors.ConfigFailed("write the config file", err)
			}

			out.Success("Wrote %s", target)
			out.Info("Edit the 'servers' section, then run 'mariabak doctor'")

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&local, "local", false, "Write ./config.yml in the working directory")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Print the effective configuration after defaults and environment
variables are applied. Passwords are omitted.`,
		Example: `  mariabak config show
  mariabak config show --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			view := redactedView(cfg)

			if out.JSON {
				return out.PrintJSON(view)
			}

			if file := cfg.FileUsed(); file != "" {
				out.Muted("# %s", file)
			} else {
				out.Muted("# built-in defaults (no config file found)")
			}

			return out.PrintJSON(view)
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		Example: `  mariabak config path
  $EDITOR "$(mariabak config path)"`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if file := cfg.FileUsed(); file != "" {
				out.Println(file)
				return nil
			}

			// No file yet; print where 'config init' would write one.
			file, err := paths.ConfigFile()
			if err != nil {
				return clierrors.ConfigFailed("resolve the config directory", err)
			}

			out.Println(file)
			out.Muted("(not created yet; run 'mariabak config init')")

			return nil
		},
	}
}

// configView mirrors config.Config for display, with passwords replaced by
// their source marker.
type configView struct {
	File      string                 `json:"file,omitempty"`
	Storage   config.StorageConfig   `json:"storage"`
	Retention config.RetentionConfig `json:"retention"`
	Discord   discordView            `json:"discord"`
	Servers   []serverView           `json:"servers"`
}

type discordView struct {
	WebhookURL string `json:"webhook_url"`
	OnSuccess  string `json:"on_success"`
	OnFailure  string `json:"on_failure"`
}

type serverView struct {
	Host          string                  `json:"host"`
	Port          int                     `json:"port"`
	User          string                  `json:"user"`
	Password      string                  `json:"password,omitempty"`
	Container     string                  `json:"container,omitempty"`
	Timeout       int                     `json:"timeout"`
	Schedule      string                  `json:"schedule,omitempty"`
	IntervalHours int                     `json:"interval_hours,omitempty"`
	Databases     []config.DatabaseConfig `json:"databases"`
}

func redactedView(cfg *config.Config) configView {
	view := configView{
		File:    cfg.FileUsed(),
		Storage: cfg.Storage,
		Discord: discordView{
			WebhookURL: redactNonEmpty(cfg.Discord.WebhookURL),
			OnSuccess:  cfg.Discord.OnSuccess,
			OnFailure:  cfg.Discord.OnFailure,
		},
		Retention: cfg.Retention,
	}

	for _, server := range cfg.Servers {
		view.Servers = append(view.Servers, serverView{
			Host:          server.Host,
			Port:          server.Port,
			User:          server.User,
			Password:      redactNonEmpty(server.Password),
			Container:     server.Container,
			Timeout:       server.Timeout,
			Schedule:      server.Schedule,
			IntervalHours: server.IntervalHours,
			Databases:     server.Databases,
		})
	}

	return view
}

func redactNonEmpty(value string) string {
	if value == "" {
		return ""
	}

	return "[set]"
}
