package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/josephlewis42/civa/core"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the shell builtins
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the commands built into the shell.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
		for _, info := range core.ListBuiltins() {
			fmt.Fprintf(tw, "%s\t%s\n", strings.Join(info.Names, ", "), info.Short)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
