package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/surefi/surefi-gateway/internal/apperr"
	"github.com/surefi/surefi-gateway/internal/chain"
	"github.com/surefi/surefi-gateway/internal/config"
	"github.com/surefi/surefi-gateway/internal/contract"
	"github.com/surefi/surefi-gateway/internal/observability/metrics"
	"github.com/surefi/surefi-gateway/internal/server"
)

var version = "dev"

const serviceName = "surefi-gateway"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "surefi-server",
		Short:         "SureFi server - read-only HTTP gateway to the SureFi verification contract",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is normal in production.
			_ = godotenv.Load()
		},
	}

	// Default behavior (no subcommand) is to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCheckCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// Server command

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg, os.Stdout)
	logger.Info("starting surefi-server", "version", version)

	metrics.Init(cfg.Metrics.Enabled, serviceName)

	// Connect to the chain; there is no point serving without it
	conn, err := chain.Connect(ctx, chain.Config{
		RPCURL:      cfg.Chain.RPCURL,
		DialTimeout: cfg.Chain.DialTimeoutDuration(),
	})
	if err != nil {
		return fmt.Errorf("connecting to chain: %w", err)
	}
	defer conn.Close()

	status := conn.Status()
	logger.Info("connected to chain",
		"rpc_url", conn.URL(),
		"chain_id", status.ChainID.String(),
		"block_number", status.BlockNumber,
	)

	binding, iface, err := bindContract(cfg, conn)
	if err != nil {
		return err
	}
	logger.Info("contract bound",
		"address", binding.Address().Hex(),
		"abi_path", iface.Path(),
		"methods", iface.Methods(),
	)
	metrics.ChainInfo(status.ChainID.String(), binding.Address().Hex(), status.BlockNumber)

	srv := server.New(cfg, binding, conn, logger)

	// Create HTTP server with configurable timeouts
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", srv.MetricsHandler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	errChan := make(chan error, 2)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	if metricsServer != nil {
		go func() {
			logger.Info("metrics listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics: %w", err)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", "error", err)
		}
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// bindContract checks the configured contract address, loads the interface
// description and binds the contract on conn.
func bindContract(cfg *config.Config, conn *chain.Connector) (*contract.Binding, *contract.Interface, error) {
	address, err := chain.ChecksumAddress(cfg.Contract.Address)
	if err != nil {
		return nil, nil, apperr.Configuration("bind", fmt.Errorf("contract address: %w", err))
	}

	iface, err := contract.LoadInterface(contract.ResolvePath(cfg.Contract.ABIPath))
	if err != nil {
		return nil, nil, fmt.Errorf("loading contract interface: %w", err)
	}

	binding, err := contract.Bind(address, iface, conn.Client(),
		contract.WithCallTimeout(cfg.Chain.CallTimeoutDuration()))
	if err != nil {
		return nil, nil, fmt.Errorf("binding contract: %w", err)
	}
	return binding, iface, nil
}

func setupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var handler slog.Handler

	level := parseLogLevel(cfg.Logging.Level)
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "pretty":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
