package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nvdat/webtrace/internal/logsink"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "webtrace",
	Short: "Run external network/security diagnostics against a target host",
	Long: `webtrace orchestrates a battery of external diagnostic tools (HTTP/2
probes, TLS scanners, header analyzers, DNS enumerators, WAF detectors)
against one target and presents unified, logged output.

Each tool runs as a supervised shell command with bounded retry; a failed
tool is reported and the remaining checks still run.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".webtrace")
			viper.SetConfigType("yaml")
		}
		// The default config file is optional; one named with --config
		// is required, and failing to load it is fatal.
		if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
			return &logsink.FatalError{
				Code:    logsink.FatalCode,
				Source:  "config",
				Message: fmt.Sprintf("cannot read config file %s: %v", cfgFile, err),
			}
		}

		applyConfigDefaults(cmd)

		if scanFlags.noColor {
			color.NoColor = true
		}
		return nil
	},
	RunE: runScan,
}

// Execute runs the command tree. Scan runs terminate through the
// lifecycle manager; only pre-lifecycle errors (flag misuse, bad target,
// unreadable config) surface here.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError(err.Error()))
		var fatal *logsink.FatalError
		if errors.As(err, &fatal) {
			os.Exit(fatal.Code)
		}
		os.Exit(logsink.UnknownCode)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.webtrace.yaml)")

	addScanFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(examplesCmd)
}
