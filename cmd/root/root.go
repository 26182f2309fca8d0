// Package root contains the root command for the application
package root

import (
	"github.com/rijnhardtkotze/icann-reports/internal/cache"
	"github.com/rijnhardtkotze/icann-reports/internal/config"
	"github.com/rijnhardtkotze/icann-reports/internal/downloader"
	"github.com/rijnhardtkotze/icann-reports/internal/fields"
	"github.com/rijnhardtkotze/icann-reports/internal/fileutils"
	"github.com/rijnhardtkotze/icann-reports/internal/pipeline"
	"github.com/rijnhardtkotze/icann-reports/internal/processor"
	"github.com/rijnhardtkotze/icann-reports/internal/reports"
	"github.com/rijnhardtkotze/icann-reports/internal/structure"
	"github.com/rijnhardtkotze/icann-reports/internal/validation"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the loaded application configuration, available to subcommands
	// after PersistentPreRunE has run
	Cfg *config.Config

	// ConfigFile is the --config flag value
	ConfigFile string

	// Verbose forces debug-level logging regardless of configuration
	Verbose bool

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "icann-reports",
		Short: "Download and summarize ICANN registrar transaction reports.",
		Long: `icann-reports downloads monthly registrar transaction reports,
normalizes their drifting column layouts against a canonical field catalog,
and aggregates the rows into per-registrar and per-TLD summaries.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to icann-reports!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()

			var err error
			Cfg, err = config.Load(ConfigFile)
			if err != nil {
				return err
			}

			if Verbose {
				Cfg.Log.Level = "debug"
			}
			Log = config.ConfigureLogging(Cfg)

			// Push the configured logger into every package
			fields.SetLogger(Log)
			structure.SetLogger(Log)
			processor.SetLogger(Log)
			validation.SetLogger(Log)
			reports.SetLogger(Log)
			cache.SetLogger(Log)
			downloader.SetLogger(Log)
			pipeline.SetLogger(Log)
			fileutils.SetLogger(Log)

			return nil
		},
	}
)

// Init initializes the root command flags
func Init() {
	Cmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "Config file (default: ./config.yaml)")
	Cmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Enable debug logging")
}
