package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/signalnine/smacview/internal/config"
	"github.com/signalnine/smacview/internal/logging"
	"github.com/signalnine/smacview/internal/rundata"
	"github.com/signalnine/smacview/internal/scenario"
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	flagLogLevel  string
	flagLogFormat string
	flagParallel  int
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "smacview",
		Short:        "Inspect and merge the output of SMAC configuration runs",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format (text, json)")
	root.PersistentFlags().IntVar(&flagParallel, "parallel", 0, "max runs loaded concurrently")
	root.AddCommand(newRunsCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newIncumbentCmd())
	root.AddCommand(newMergeCmd())
	return root
}

// loadConfig reads the config file. A missing file is fine as long as the
// user did not ask for a specific one.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path == config.DefaultPath && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, err
}

// setup loads the config, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}
	if flagParallel < 0 {
		return nil, nil, fmt.Errorf("--parallel must not be negative")
	}
	if flagParallel > 0 {
		cfg.Load.Parallel = flagParallel
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func loadDataset(cmd *cobra.Command, path string) (*scenario.Descriptor, rundata.Dataset, *config.Config, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	desc, ds, err := rundata.Load(scenario.Detect(path), rundata.Options{
		Parallel: cfg.Load.Parallel,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return desc, ds, cfg, nil
}
