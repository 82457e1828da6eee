// Command concord-merge is the VCS process-boundary glue for concord's
// entity merge core: a merge-driver git/jj can invoke directly, plus a diff
// command for inspecting entity-level changes outside of a merge.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "concord-merge",
		Short: "Entity-level three-way merge driver",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newMergeDriverCmd())
	root.AddCommand(newDiffCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "concord-merge 0.1.0-dev")
		},
	}
}
