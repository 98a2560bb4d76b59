// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/policy-engine/internal/tools"
	"github.com/pdiddy/policy-engine/internal/transport"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over HTTP and MCP",
	Long: `Serve starts an HTTP server exposing:

  GET  /            index with links
  POST /tool        {"tool": name, "input": {...}} returning an envelope
  GET  /tools       the local tool catalogue
  GET  /mcp/tools   the catalogue as listed by the configured discovery
  /mcp              MCP streamable HTTP endpoint
  GET  /healthz     liveness
  GET  /metrics     Prometheus metrics (when metrics.enabled)`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	serveCmd.Flags().Bool("metrics", false, "enable OTel metrics and /metrics")
	serveCmd.Flags().String("calllog", "", "SQLite path for the tool call log (empty disables)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("metrics.enabled", serveCmd.Flags().Lookup("metrics"))
	_ = viper.BindPFlag("calllog.path", serveCmd.Flags().Lookup("calllog"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	discovery, err := tools.NewDiscovery(cfg.Discovery, rt.invoker)
	if err != nil {
		return err
	}

	srv := &transport.Server{
		Invoker:   rt.invoker,
		Discovery: discovery,
		Logger:    logger,
		MCP:       transport.NewMCPHandler(transport.NewMCPServer(rt.invoker, version)),
		Version:   version,
	}
	if rt.provider != nil {
		srv.Metrics = rt.provider.Handler()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Int("tools", len(rt.registry.Specs())),
			zap.String("discovery", string(cfg.Discovery.Mode)),
			zap.Bool("metrics", rt.provider != nil),
			zap.Bool("calllog", rt.calls != nil),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving %s: %w", cfg.Server.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
