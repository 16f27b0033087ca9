package cmd

import (
	"fmt"

	"github.com/signalnine/smacview/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagRun             int
	flagIncumbentFormat string
)

func newIncumbentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incumbent [scenario] --run N",
		Short: "Print the best-so-far curve of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ds, _, err := loadDataset(cmd, scenarioArg(args))
			if err != nil {
				return err
			}
			rec, ok := ds[flagRun]
			if !ok {
				return fmt.Errorf("run %d was not loaded (available: %v)", flagRun, ds.IDs())
			}
			return report.WriteIncumbent(rec, flagIncumbentFormat, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&flagRun, "run", 0, "run id")
	cmd.Flags().StringVar(&flagIncumbentFormat, "format", "table", "output format (table, json)")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}
