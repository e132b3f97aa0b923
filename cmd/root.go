package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/evosolve/internal/store"
)

var (
	logLevel  string
	dataDir   string
	storeKind string
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "evosolve",
	Short: "Checkpointed genetic optimizer for expensive objectives",
	Long: `Evosolve runs a genetic algorithm against expensive black-box objective
functions, evaluating candidates in parallel and checkpointing every
generation so interrupted runs resume without recomputing known fitness.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logger
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(os.Stdout, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "fs", "Checkpoint backend: fs or sqlite")
}

// openStore builds the checkpoint store selected by the --store flag.
func openStore() (store.Store, error) {
	switch storeKind {
	case "fs":
		return store.NewFSStore(dataDir)
	case "sqlite":
		return store.NewSQLiteStore(dataDir)
	default:
		return nil, fmt.Errorf("unknown store backend %q (use fs or sqlite)", storeKind)
	}
}
