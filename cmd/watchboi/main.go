package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/LukasKalbertodt/watchboi/internal/config"
	"github.com/LukasKalbertodt/watchboi/internal/logging"
	"github.com/LukasKalbertodt/watchboi/internal/metrics"
	"github.com/LukasKalbertodt/watchboi/internal/notify"
	"github.com/LukasKalbertodt/watchboi/internal/proxy"
	"github.com/LukasKalbertodt/watchboi/internal/reload"
	"github.com/LukasKalbertodt/watchboi/internal/task"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	tasks, err := task.Load(cfg.TaskFile)
	if err != nil {
		logger.Error("load tasks", "err", err)
		os.Exit(1)
	}

	var notifier notify.Notifier = &notify.NoOpNotifier{}
	if cfg.NotifyURL != "" {
		notifier, err = notify.NewWebhookNotifier(cfg.NotifyURL)
		if err != nil {
			logger.Error("configure notifier", "err", err)
			os.Exit(1)
		}
	}

	m := metrics.New()
	refresh := make(chan struct{}, 1)
	runner := task.NewRunner(tasks, cfg.BaseDir, logger, m, notifier, refresh)
	if err := runner.ValidateAll(); err != nil {
		logger.Error("invalid task configuration", "err", err)
		os.Exit(1)
	}

	reloadPort, err := cfg.ReloadPort()
	if err != nil {
		logger.Error("invalid reload address", "err", err)
		os.Exit(1)
	}

	registry := reload.NewRegistry()
	proxyServer := proxy.NewServer(cfg.Addr, cfg.ProxyTarget, reloadPort, cfg.AutoReload, logger, m)
	reloadServer := reload.NewServer(cfg.ReloadAddr, cfg.ProxyTarget, registry, logger, m, cfg.MetricsEnabled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Errors from the long-lived loops surface here instead of silently
	// terminating a single goroutine.
	serverErr := make(chan error, 2)

	go func() {
		if err := proxyServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	if cfg.AutoReload {
		go func() {
			if err := reloadServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
		go reloadServer.ConsumeRefresh(ctx, refresh)
	}

	// Run the pipeline once at startup; SIGHUP re-runs it. The latter stands
	// in for a file watcher until one is wired up.
	go runner.RunAll(ctx)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

loop:
	for {
		select {
		case <-hup:
			logger.Info("received SIGHUP, re-running tasks")
			go runner.RunAll(ctx)
		case sig := <-sigs:
			logger.Info("received signal", "signal", sig.String())
			break loop
		case err := <-serverErr:
			logger.Error("server error", "err", err)
			break loop
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()

	if err := proxyServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("proxy shutdown", "err", err)
	}
	if cfg.AutoReload {
		if err := reloadServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("reload server shutdown", "err", err)
		}
	}
}
