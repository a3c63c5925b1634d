package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurisproject/auris/pkg/core/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("auris-listen %s\n", version.Listen)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
