package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atdtech/dcdash/internal/cli"
	"github.com/atdtech/dcdash/internal/doctor"
)

var doctorDetails bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long: `Check the configuration, database connectivity, the session context and
every report template.`,
	Example: `  # Run health checks
  dcdash doctor

  # Include driver error text in the output
  dcdash doctor --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !quiet {
			fmt.Fprintln(out, "dcdash doctor - Health Check")
		}

		report, err := doctor.New(cfg, nil).Run(cmd.Context())
		if err != nil {
			return cli.GeneralError("running doctor", err)
		}
		report.Print(out, doctorDetails || verbose > 0)

		if report.HasErrors() {
			return cli.HealthError("health checks failed", nil)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorDetails, "details", false, "show driver error details")
}
