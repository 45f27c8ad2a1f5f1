// Command poolserve runs the educational worker-pool HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxorio/poolserve/pkg/config"
	"github.com/fluxorio/poolserve/pkg/httpd"
	"github.com/fluxorio/poolserve/pkg/logging"
	"github.com/fluxorio/poolserve/pkg/metrics"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML configuration file")
		addr       = flag.String("addr", "", "listen address override")
		workers    = flag.Int("workers", 0, "worker pool size override")
	)
	flag.Parse()

	if err := run(*configPath, *addr, *workers); err != nil {
		fmt.Fprintln(os.Stderr, "poolserve:", err)
		os.Exit(1)
	}
}

func run(configPath, addr string, workers int) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if workers != 0 {
		cfg.Server.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	router, err := httpd.NewRouterFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv, err := httpd.NewServer(&httpd.ServerConfig{
		Addr:         cfg.Server.Addr,
		Workers:      cfg.Server.Workers,
		QueueSize:    cfg.Server.QueueSize,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return err
	}
	srv.SetHandler(httpd.NewHTTPHandler(router))
	srv.Use(httpd.AccessLogMiddleware(logger))

	var endpoint *metrics.Endpoint
	if cfg.Metrics.Enabled {
		m := metrics.New()
		m.ObservePool(srv.Pool())
		srv.SetMetrics(m)
		srv.Use(httpd.MetricsMiddleware(m))

		endpoint = m.NewEndpoint(cfg.Metrics.Addr)
		go func() {
			if err := endpoint.Start(); err != nil {
				logger.Errorf("metrics endpoint: %v", err)
			}
		}()
		logger.Infof("metrics endpoint listening on %s", cfg.Metrics.Addr)
	}

	// Graceful shutdown: stop accepting, drain queued connections, join all
	// workers.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("received %s, shutting down", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
		if endpoint != nil {
			if err := endpoint.Shutdown(ctx); err != nil {
				logger.Errorf("metrics endpoint shutdown: %v", err)
			}
		}
	}()

	return srv.Start()
}
