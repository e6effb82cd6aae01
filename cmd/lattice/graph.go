package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the tree visualization",
	Long:  `Inspects the tree and outputs a Mermaid diagram (graph TD) of its coordinates, options and callables.`,
	Run: func(cmd *cobra.Command, args []string) {
		shell, err := newShell(cmd, args)
		if err != nil {
			fmt.Printf("Error initializing lattice: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(shell.Mermaid(nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
