package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	fileStore "github.com/aretw0/lattice/pkg/adapters/file"
	memoryStore "github.com/aretw0/lattice/pkg/adapters/memory"
	redisStore "github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/ports"
)

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice is a coordinate-addressed navigation shell",
	Long: `Lattice turns a tree of Markdown nodes into an interactive shell whose
command surface is a small scripting language: navigate menus, invoke
callables, and compose both into chains with conditionals and loops.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the Lattice tree")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("store", "memory", "Session store backend: memory, file or redis")
	rootCmd.PersistentFlags().String("store-path", "", "Base path for the file store (default .lattice/sessions)")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address (only for --store=redis)")
	rootCmd.PersistentFlags().String("redis-password", "", "Redis password (only for --store=redis)")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database number (only for --store=redis)")
}

// newLogger builds the stderr logger from the persistent log-level flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.New(logging.ParseLevel(level))
}

// treePath resolves the tree directory: --dir flag, or the first positional
// argument when --dir was not set explicitly.
func treePath(cmd *cobra.Command, args []string) string {
	repoPath, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		repoPath = args[0]
	}
	return repoPath
}

// newShell initializes the shell from the shared flags.
func newShell(cmd *cobra.Command, args []string, extra ...lattice.Option) (*lattice.Shell, error) {
	opts := append([]lattice.Option{lattice.WithLogger(newLogger(cmd))}, extra...)
	return lattice.New(treePath(cmd, args), opts...)
}

// newSessionStore builds the session store selected by the --store flag.
func newSessionStore(cmd *cobra.Command) (ports.SessionStore, error) {
	backend, _ := cmd.Flags().GetString("store")
	switch backend {
	case "memory":
		return memoryStore.NewStore(), nil
	case "file":
		path, _ := cmd.Flags().GetString("store-path")
		return fileStore.New(path), nil
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		return redisStore.New(addr, password, db), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (supported: memory, file, redis)", backend)
	}
}
