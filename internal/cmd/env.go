package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Iron-Ham/procthread/internal/config"
	"github.com/Iron-Ham/procthread/internal/logging"
	"github.com/Iron-Ham/procthread/internal/metrics"
)

// shutdownTimeout bounds how long the metrics server may take to drain.
const shutdownTimeout = 5 * time.Second

// workloadEnv holds what every workload command sets up before it runs.
type workloadEnv struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Collector
	server  *http.Server
}

// newWorkloadEnv loads and validates the configuration, opens the logger and,
// when enabled, starts the Prometheus endpoint.
func newWorkloadEnv() (*workloadEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLoggerWithRotation(cfg.Logging.Dir, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open logger: %w", err)
	}
	env := &workloadEnv{cfg: cfg, logger: logger}

	if cfg.Metrics.Enabled {
		if err := env.serveMetrics(cfg.Metrics.Addr); err != nil {
			_ = logger.Close()
			return nil, err
		}
	}
	return env, nil
}

func (e *workloadEnv) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	e.metrics = metrics.New(reg)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger := e.logger.WithComponent("metrics")
	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// Close stops the metrics server and closes the logger.
func (e *workloadEnv) Close() error {
	var errs []error
	if e.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	if err := e.logger.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
