package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/stampede/internal/config"
	"github.com/wesleyorama2/stampede/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo target server",
		Long: `Run an HTTP server with endpoints that answer quickly, slowly, or after
burning CPU and memory, so traffic batches have something to measure.

  GET /health
  GET /api/sort/quick?size=N      GET /api/sort/bubble?size=N
  GET /api/cpu?duration=D&ops=N   GET /api/long-running?duration=D&tick=D
  GET /api/heap?arrays=N&size=N   GET /api/stack?depth=N
  GET /api/recursion/:levels      GET /api/slow?min=MS&max=MS
  GET /api/mock?count=N           GET /api/traffic?requests=N&timeout=D

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", config.DefaultServerAddr, "Listen address")
	cmd.Flags().String("mode", config.DefaultServerMode, "Server mode: debug, release or test")
	cmd.Flags().Float64("rate-limit", 0, "Requests per second allowed across all clients (0 disables)")
	cmd.Flags().Int("burst", 0, "Burst size for the rate limiter")
	cmd.Flags().Duration("shutdown-timeout", config.DefaultShutdownTimeout, "Time allowed for in-flight requests on shutdown")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	serverCfg, err := resolveServer(cmd, cfg.Server)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd, cfg, serverCfg.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	srv, err := server.New(serverCfg, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "stampede demo server listening on %s\n", srv.Addr())
	return srv.ListenAndServe(cmd.Context())
}

// resolveServer layers flags over the config file and validates the result.
func resolveServer(cmd *cobra.Command, fileCfg config.ServerConfig) (server.Config, error) {
	s := fileCfg
	flags := cmd.Flags()

	if flags.Changed("addr") || s.Addr == "" {
		s.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("mode") || s.Mode == "" {
		s.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("rate-limit") {
		s.RateLimit, _ = flags.GetFloat64("rate-limit")
	}
	if flags.Changed("burst") {
		s.Burst, _ = flags.GetInt("burst")
	}
	if flags.Changed("shutdown-timeout") {
		d, _ := flags.GetDuration("shutdown-timeout")
		s.ShutdownTimeout = config.Duration(d)
	}

	if err := (&config.File{Server: s}).Validate(); err != nil {
		return server.Config{}, err
	}

	return server.Config{
		Addr:            s.Addr,
		Mode:            s.Mode,
		RateLimit:       s.RateLimit,
		Burst:           s.Burst,
		ShutdownTimeout: s.ShutdownTimeout.GetDuration(config.DefaultShutdownTimeout),
	}, nil
}
