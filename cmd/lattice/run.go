package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/runner"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive shell",
	Long:  `Starts the Lattice shell in interactive mode with the tree from the current directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		sessionID, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")
		noBanner, _ := cmd.Flags().GetBool("no-banner")

		shell, err := newShell(cmd, args)
		if err != nil {
			fmt.Printf("Error initializing lattice: %v\n", err)
			os.Exit(1)
		}

		store, err := newSessionStore(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		r := runner.NewRunner()
		r.Store = store
		r.Logger = newLogger(cmd)

		if jsonMode {
			r.Handler = runner.NewJSONHandler(os.Stdin, os.Stdout)
		} else {
			if !noBanner {
				tui.PrintBanner()
			}
			r.Renderer = tui.NewRenderer()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := r.Run(ctx, shell, sessionID); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("session", "", "Session ID to resume or create (empty for ephemeral)")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Bool("no-banner", false, "Suppress the startup banner")

	// Make 'run' the default when no subcommand is provided.
	rootCmd.Run = runCmd.Run
}
