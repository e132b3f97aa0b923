package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/evosolve/internal/objective"
)

var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "List registered objective functions",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range objective.Names() {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(objectivesCmd)
}
