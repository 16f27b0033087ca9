package cmd

import (
	"github.com/signalnine/smacview/internal/report"
	"github.com/spf13/cobra"
)

var flagFormat string

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [scenario]",
		Short: "Summarize the best configurations found by each run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, ds, cfg, err := loadDataset(cmd, scenarioArg(args))
			if err != nil {
				return err
			}
			format := cfg.Report.Format
			if flagFormat != "" {
				format = flagFormat
			}
			return report.Generate(desc, ds, format, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "", "output format (table, markdown, json)")
	return cmd
}
