package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/corps-sequencer/internal/config"
)

// #region root
type rootOptions struct {
	configPath string
	envFile    string

	instrument  string
	logLevel    string
	logFormat   string
	dbPath      string
	metricsAddr string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "sequencer",
		Short:         "Elastic-deadline trade sequencer with narrated transitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before SEQ_ overrides")
	pf.StringVar(&opts.instrument, "instrument", "", "instrument label for logs and sessions")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format (json|console)")
	pf.StringVar(&opts.dbPath, "db", "", "SQLite audit database")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(newRunCmd(opts), newCheckConfigCmd(opts))
	return root
}

// #endregion root

// #region settings
// settings resolves defaults, dotenv, config file and environment, then
// applies flags the user set explicitly.
func (o *rootOptions) settings(cmd *cobra.Command) (config.Settings, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return config.Settings{}, err
	}
	s, err := config.Load(o.configPath)
	if err != nil {
		return config.Settings{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("instrument") {
		s.Instrument = o.instrument
	}
	if flags.Changed("log-level") {
		s.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		s.LogFormat = o.logFormat
	}
	if flags.Changed("db") {
		s.DBPath = o.dbPath
	}
	if flags.Changed("metrics-addr") {
		s.MetricsAddr = o.metricsAddr
	}
	return s, nil
}

// #endregion settings
