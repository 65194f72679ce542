package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/stampede/internal/config"
	"github.com/wesleyorama2/stampede/pkg/logger"
)

var version = "0.1.0"

// NewRootCmd builds the stampede command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "stampede",
		Short:   "Fire concurrent request batches at an HTTP endpoint",
		Version: version,
		Long: `Stampede fires a batch of concurrent GET requests at an HTTP endpoint,
waits for every one of them to settle, and reports how many succeeded, how
long they took and why the others failed.

It also ships a demo server whose endpoints can be made slow, CPU bound or
memory hungry on demand, and the workloads behind those endpoints.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-mode", "", "Log mode: debug, release or quiet (logs go to stderr)")

	rootCmd.AddCommand(newTrafficCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newWorkloadCmd())

	return rootCmd
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig reads --config, or returns an empty configuration when the
// flag is not set.
func loadConfig(cmd *cobra.Command) (*config.File, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return &config.File{}, nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

// newLogger picks the log mode from --log-mode, then the config file, then fallback.
func newLogger(cmd *cobra.Command, cfg *config.File, fallback string) (*zap.Logger, error) {
	mode := fallback
	if cfg.Log.Mode != "" {
		mode = cfg.Log.Mode
	}
	if cmd.Flags().Changed("log-mode") {
		mode, _ = cmd.Flags().GetString("log-mode")
	}
	return logger.New(mode)
}
