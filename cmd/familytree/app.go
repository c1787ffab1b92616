// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/familytree/cmd/familytree/config"
	"github.com/AleutianAI/familytree/cmd/familytree/internal/loader"
	"github.com/AleutianAI/familytree/pkg/logging"
	"github.com/AleutianAI/familytree/pkg/ux"
	"github.com/AleutianAI/familytree/services/family"
	"github.com/AleutianAI/familytree/services/family/telemetry"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// Flag values.
	configPath string
	dataPath   string
	logLevel   string
	colorMode  string
	jsonOutput bool
	watch      bool

	cfg     config.Config
	logger  *logging.Logger
	querier *family.Querier

	shutdownTelemetry func(context.Context) error
	metricsServer     *http.Server
	metricsGroup      *errgroup.Group
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		cfg:     config.DefaultConfig(),
		logger:  logging.Discard(),
		querier: family.NewQuerier(family.NewRegistry()),
	}
}

// setup loads configuration, starts logging and telemetry and loads the
// data file. It runs before every command except init-config.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	path, err := config.Resolve(a.configPath)
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataFile = a.dataPath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("color") {
		cfg.REPL.Color = a.colorMode
	}
	if flags.Changed("watch") {
		cfg.REPL.Watch = a.watch
	}
	if err := cfg.Validate(); err != nil {
		return badArgs(cmd.Name(), err)
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return badArgs(cmd.Name(), err)
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "familytree",
		JSON:    cfg.Logging.JSON,
		Output:  a.stderr,
	})
	a.logger.Debug("config loaded", "path", path)

	telCfg := telemetryConfig(cfg.Telemetry)
	telCfg.Output = a.stderr
	shutdown, err := telemetry.Init(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	a.shutdownTelemetry = shutdown

	if telCfg.MetricExporter == telemetry.ExporterPrometheus && cfg.Telemetry.MetricsAddr != "" {
		if err := a.serveMetrics(cfg.Telemetry.MetricsAddr); err != nil {
			return err
		}
	}

	reg := family.NewRegistry()
	if cfg.DataFile != "" {
		if _, err := loader.LoadFile(ctx, cfg.DataFile, reg, a.logger); err != nil {
			return err
		}
	}
	a.querier = family.NewQuerier(reg)
	return nil
}

// telemetryConfig layers the config file over telemetry.DefaultConfig,
// which already carries the OTEL_* environment values. Only fields set in
// the file replace them.
func telemetryConfig(tc config.TelemetryConfig) telemetry.Config {
	cfg := telemetry.DefaultConfig()
	if tc.TraceExporter != "" {
		cfg.TraceExporter = tc.TraceExporter
	}
	if tc.MetricExporter != "" {
		cfg.MetricExporter = tc.MetricExporter
	}
	if tc.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = tc.OTLPEndpoint
	}
	return cfg
}

// reloadData builds a Querier over a fresh registry loaded from the data
// file. The current registry is left untouched on failure.
func (a *app) reloadData(ctx context.Context) (*family.Querier, error) {
	reg := family.NewRegistry()
	if _, err := loader.LoadFile(ctx, a.cfg.DataFile, reg, a.logger); err != nil {
		return nil, err
	}
	return family.NewQuerier(reg), nil
}

// serveMetrics starts the /metrics listener. The listen error, if any, is
// returned synchronously.
func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	a.metricsServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.metricsGroup = &errgroup.Group{}
	a.metricsGroup.Go(func() error {
		if err := a.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	a.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// close stops the metrics listener, flushes telemetry and closes the log.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop metrics server: %w", err))
		}
		if err := a.metricsGroup.Wait(); err != nil {
			errs = append(errs, fmt.Errorf("metrics server: %w", err))
		}
	}
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	if err := a.logger.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// styler returns the styler for out according to the configured color mode.
func (a *app) styler(out io.Writer) *ux.Styler {
	mode, err := ux.ParseColorMode(a.cfg.REPL.Color)
	if err != nil {
		mode = ux.ColorAuto
	}
	return ux.NewStyler(out, mode)
}
