package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mariabak-dev/mariabak/internal/doctor"
	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
	"github.com/mariabak-dev/mariabak/internal/output"
)

// doctorResultJSON is the JSON shape of one check result.
type doctorResultJSON struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks against the local setup: configuration,
storage directory, dump tools, webhook, and CLI version.`,
		Example: `  mariabak doctor
  mariabak doctor --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			results := doctor.New().Run(ctx)
			passed, failed, warnings := doctor.Summary(results)

			if out.JSON {
				jsonResults := make([]doctorResultJSON, 0, len(results))

				for _, r := range results {
					jsonResults = append(jsonResults, doctorResultJSON{
						Name:    r.Name,
						Status:  statusString(r.Status),
						Message: r.Message,
						Detail:  r.Detail,
					})
				}

				if err := out.PrintJSON(struct {
					Results  []doctorResultJSON `json:"results"`
					Passed   int                `json:"passed"`
					Failed   int                `json:"failed"`
					Warnings int                `json:"warnings"`
				}{jsonResults, passed, failed, warnings}); err != nil {
					return err
				}
			} else {
				out.Println("Running diagnostics...")
				out.Println()

				for _, r := range results {
					renderResult(out, r)
				}

				out.Println()
				out.Print("%d passed, %d warning(s), %d failed\n", passed, warnings, failed)
			}

			if failed > 0 {
				return &clierrors.CLIError{
					Message: fmt.Sprintf("%d check(s) failed", failed),
					Code:    clierrors.ExitGeneral,
				}
			}

			return nil
		},
	}
}

func renderResult(out *output.Writer, r doctor.Result) {
	line := fmt.Sprintf("%s: %s", r.Name, r.Message)

	switch r.Status {
	case doctor.StatusPass:
		out.Success("%s", line)
	case doctor.StatusWarn:
		out.Warning("%s", line)
	case doctor.StatusFail:
		out.Failure("%s", line)
	}

	if r.Detail != "" {
		out.Muted("  %s", r.Detail)
	}
}

func statusString(s doctor.Status) string {
	switch s {
	case doctor.StatusPass:
		return "pass"
	case doctor.StatusWarn:
		return "warn"
	case doctor.StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}
