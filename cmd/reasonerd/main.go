// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command reasonerd starts the Treelight reasoning API server.
//
// The server exposes five interchangeable search strategies (beam
// search, MCTS, A*, constraint satisfaction and a hybrid arbiter) over
// session-scoped thought stores.
//
// Usage:
//
//	go run ./cmd/reasonerd serve
//	go run ./cmd/reasonerd serve --config reasoner.yaml
//	REASONER_ADDR=:9000 go run ./cmd/reasonerd serve
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8093/healthz
//
//	# Process a thought
//	curl -X POST http://localhost:8093/v1/reason/thought \
//	  -H "Content-Type: application/json" \
//	  -d '{"thought": "open with a tutorial island", "thoughtNumber": 1, "totalThoughts": 5, "nextThoughtNeeded": true}'
//
//	# Session aggregates
//	curl http://localhost:8093/v1/reason/stats | jq
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/treelight/reasoner/services/reasoner"
	"github.com/treelight/reasoner/services/reasoner/config"
	"github.com/treelight/reasoner/services/reasoner/telemetry"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "reasonerd",
	Short: "Strategy-driven reasoning tree server",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reasoning API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug mode")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	setupLogging(cfg.Telemetry.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	if debug {
		router.Use(gin.Logger())
	}

	registry := reasoner.NewRegistry(cfg, slog.Default())
	reasoner.RegisterRoutes(router, reasoner.NewHandlers(registry))

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting reasoner server",
			slog.String("address", cfg.Server.Addr),
			slog.String("default_strategy", cfg.Search.DefaultStrategy))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down reasoner server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
