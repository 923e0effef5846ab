package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"loginload/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the available scenarios and their credential tables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printScenarios(cmd.OutOrStdout())
	},
}

func printScenarios(out io.Writer) {
	for _, info := range scenario.List() {
		fmt.Fprintf(out, "%s\n  %s\n", info.Name, info.Description)
		for i := 0; i < info.Table.Len(); i++ {
			c := info.Table.At(i)
			fmt.Fprintf(out, "    [%d] %s / %s\n", i, c.Username, c.Password)
		}
		fmt.Fprintln(out)
	}
}
