package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the tree for consistency",
	Long:  `Loads every node and reports broken option targets, invalid kinds and unreachable coordinates.`,
	Run: func(cmd *cobra.Command, args []string) {
		root, _ := cmd.Flags().GetString("root")

		shell, err := newShell(cmd, args)
		if err != nil {
			fmt.Printf("Error initializing lattice: %v\n", err)
			os.Exit(1)
		}

		if root == "" {
			root = shell.NewSession().Position
		}

		report, err := validator.ValidateTree(shell.Loader(), root)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		for _, coordinate := range report.Unreachable {
			fmt.Printf("Warning: %q is not reachable from %q via menu options\n", coordinate, root)
		}
		if err := report.Err(); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Tree is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("root", "", "Coordinate to crawl from (defaults to the session root)")
}
