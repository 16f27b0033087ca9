package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/signalnine/smacview/internal/config"
	"github.com/signalnine/smacview/internal/merge"
	"github.com/signalnine/smacview/internal/scenario"
	"github.com/spf13/cobra"
)

var flagBackend string

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [scenario]",
		Short: "Merge the state of all runs into a single run directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			desc, err := scenario.Load(scenario.Detect(scenarioArg(args)))
			if err != nil {
				return err
			}
			backend := cfg.Merge.Backend
			if flagBackend != "" {
				backend = flagBackend
			}
			m, err := newMerger(cfg.Merge, backend, logger)
			if err != nil {
				return err
			}

			timeout := time.Duration(cfg.Merge.TimeoutMinutes) * time.Minute
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := m.Merge(ctx, merge.NewRequest(desc))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merged state written to %s\n", res.MergedDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&flagBackend, "backend", "", "merge backend (exec, docker)")
	return cmd
}

func newMerger(cfg config.Merge, backend string, logger *slog.Logger) (merge.Merger, error) {
	switch backend {
	case "exec":
		cp := cfg.Classpath
		if len(cp) == 0 {
			if cfg.SMACHome == "" {
				return nil, fmt.Errorf("exec backend needs merge.classpath or merge.smac_home")
			}
			var err error
			if cp, err = merge.Classpath(cfg.SMACHome); err != nil {
				return nil, err
			}
		}
		return &merge.ExecMerger{Java: cfg.Java, Classpath: cp, Logger: logger}, nil
	case "docker":
		if cfg.SMACHome == "" {
			return nil, fmt.Errorf("docker backend needs merge.smac_home")
		}
		timeout := time.Duration(cfg.TimeoutMinutes) * time.Minute
		return merge.NewDockerMerger(cfg.Image, cfg.SMACHome, timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown merge backend %q", backend)
	}
}
