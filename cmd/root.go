package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reportkit",
	Short: "Compose, manage and deliver penetration test reports",
	Long: `reportkit manages a shared vulnerability catalog and builds client-ready
penetration test reports from it. Findings reference catalog entries and
override only what differs per engagement, so catalog improvements flow
into every report automatically.

Get started:
  reportkit serve      Start the API server
  reportkit register   Create an account
  reportkit compose    Interactive report creation wizard
  reportkit report     List, inspect and export reports
  reportkit catalog    Manage the vulnerability catalog
  reportkit ui         Launch the terminal UI`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.reportkit/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		serveCmd,
		registerCmd,
		loginCmd,
		logoutCmd,
		whoamiCmd,
		composeCmd,
		reportCmd,
		catalogCmd,
		uiCmd,
		configCmd,
		doctorCmd,
	)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}
}
