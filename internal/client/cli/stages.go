package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/ravey/almond/pkg/lifecycle"
	"github.com/spf13/cobra"
)

func newStagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stages [status...]",
		Short: "Show how almond status values are displayed",
		Long: `Print the display label and progress for the given status values, or the
whole table when none are given. Unknown values are marked with "?".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stages := lifecycle.All()
			if len(args) > 0 {
				stages = make([]lifecycle.Stage, 0, len(args))
				for _, raw := range args {
					stages = append(stages, lifecycle.Lookup(raw))
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STATUS\tLABEL\tPROGRESS")
			for _, s := range stages {
				mark := ""
				if !s.Known {
					mark = " ?"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d%%%s\n", s.Status, s.Label, s.Progress, mark)
			}
			return tw.Flush()
		},
	}
}
