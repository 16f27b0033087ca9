package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/signalnine/smacview/internal/incumbent"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs [scenario]",
		Short: "List the runs that loaded and their sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, ds, _, err := loadDataset(cmd, scenarioArg(args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Output directory: %s\n", desc.ScenarioOutputDir())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tEVALUATIONS\tBEST")
			for _, id := range ds.IDs() {
				_, best := incumbent.Best(ds[id].Performance)
				fmt.Fprintf(tw, "%d\t%d\t%g\n", id, ds[id].Len(), best)
			}
			return tw.Flush()
		},
	}
}

// scenarioArg defaults to the working directory, which is then searched
// for the default scenario file name.
func scenarioArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
