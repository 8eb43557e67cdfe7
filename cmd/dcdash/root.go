package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/atdtech/dcdash/internal/cli"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     *slog.Logger

	// Persistent flags
	cfgFile string
	verbose int
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "dcdash",
	Short: "DC dashboard reporting API",
	Long: `dcdash - DC dashboard reporting API

dcdash serves read-only distribution centre reports from Oracle E-Business
Suite. Every query runs on a session whose context is set up first and which
is always released afterwards.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		logger, err = cli.NewLogger(os.Stderr, logLevel(), cfg.Log.Format)
		if err != nil {
			return cli.ConfigError("configuring logging", err)
		}
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupReports = "reports"
	groupUtility = "utility"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover dcdash.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupReports, Title: "Reports:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	serveCmd.GroupID = groupReports
	reportCmd.GroupID = groupReports
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)

	doctorCmd.GroupID = groupUtility
	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		cli.ExitWithError(err)
	}
}

// logLevel applies the -v and -q flags on top of the configured level.
func logLevel() string {
	switch {
	case quiet:
		return "error"
	case verbose > 0:
		return "debug"
	default:
		return cfg.LogLevel()
	}
}
