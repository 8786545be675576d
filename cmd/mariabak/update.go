package main

import (
	"fmt"

	"github.com/spf13/cobra"

	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
	"github.com/mariabak-dev/mariabak/internal/output"
	"github.com/mariabak-dev/mariabak/internal/update"
)

func newUpdateCmd() *cobra.Command {
	var (
		checkOnly     bool
		targetVersion string
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update mariabak to the latest version",
		Long: `Check for and install the latest mariabak release from GitHub.

The downloaded binary is checksum-verified before it replaces the
current one. Set MARIABAK_UPDATE_DISABLED=1 to disable updates entirely
(e.g. for package-manager installs).`,
		Example: `  mariabak update
  mariabak update --check
  mariabak update --version 1.2.3`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			if update.IsDisabled() {
				return &clierrors.CLIError{
					Message: "Updates are disabled (MARIABAK_UPDATE_DISABLED is set)",
					Hint:    "Update mariabak through the package manager it was installed with",
					Code:    clierrors.ExitGeneral,
				}
			}

			updater, err := update.NewUpdater()
			if err != nil {
				return clierrors.Wrap(clierrors.ExitNetwork, "Failed to initialize updater", err)
			}

			if targetVersion != "" {
				spin := out.Spinner(fmt.Sprintf("Installing v%s", targetVersion))
				spin.Start()

				release, applyErr := updater.ApplyVersion(ctx, targetVersion)
				if applyErr != nil {
					spin.StopWithFailure("")
					return clierrors.Wrap(clierrors.ExitNetwork, fmt.Sprintf("Failed to install v%s", targetVersion), applyErr)
				}

				spin.StopWithSuccess(fmt.Sprintf("Updated to v%s", release.Version()))

				return nil
			}

			info, err := updater.CheckLatest(ctx, version)
			if err != nil {
				return clierrors.Wrap(clierrors.ExitNetwork, "Failed to check for updates", err).
					WithHint("Check your network connection and try again")
			}

			if out.JSON && checkOnly {
				return out.PrintJSON(info)
			}

			if !info.UpdateAvailable && !force {
				out.Success("mariabak %s is up to date", version)
				return nil
			}

			if checkOnly {
				out.Info("A new version is available: v%s → v%s", version, info.LatestVersion)
				out.Muted("  Run 'mariabak update' to update")

				return nil
			}

			if info.Release == nil {
				return clierrors.New(clierrors.ExitNetwork, "No release found to install")
			}

			spin := out.Spinner(fmt.Sprintf("Updating to v%s", info.LatestVersion))
			spin.Start()

			if err := updater.Apply(ctx, info.Release); err != nil {
				spin.StopWithFailure("")
				return clierrors.Wrap(clierrors.ExitNetwork, "Failed to apply the update", err)
			}

			spin.StopWithSuccess(fmt.Sprintf("Updated to v%s", info.LatestVersion))

			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only check whether an update is available")
	cmd.Flags().StringVar(&targetVersion, "version", "", "Install a specific version")
	cmd.Flags().BoolVar(&force, "force", false, "Reinstall even when already up to date")

	return cmd
}
