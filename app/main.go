package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsmon/app/api"
	"newsmon/app/cfg"
	"newsmon/app/config"
	"newsmon/app/notify"
	"newsmon/app/runner"
	"newsmon/app/state"
	"newsmon/app/tasks"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if c == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(c)

	slog.Info("Starting newsmon", "version", c.Version)

	configs := config.NewCache(c.ConfigFile)
	if _, err := configs.Load(); err != nil {
		slog.Error("Failed to load topics configuration", "path", c.ConfigFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Topics configuration loaded", "path", c.ConfigFile,
		"topics", configs.Get().TopicCount(), "feeds", configs.Get().FeedCount())

	store, err := state.Open(c)
	if err != nil {
		slog.Error("Failed to open state store", "driver", c.StateDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var transport notify.Transport
	if c.TelegramToken != "" {
		transport = notify.NewClient(c.TelegramToken)
	} else {
		slog.Warn("Telegram token not set, items will be selected but not delivered")
	}

	pipeline := runner.NewRunner(c, configs, store, transport)

	if c.Oneshot() {
		if _, err := pipeline.Run(context.Background()); err != nil {
			os.Exit(1)
		}
		return
	}

	runDaemon(c, pipeline, configs)
}

func runDaemon(c *cfg.Cfg, pipeline *runner.Runner, configs *config.Cache) {
	scheduler, err := tasks.NewScheduler(c, pipeline)
	if err != nil {
		slog.Error("Failed to create scheduler", "error", err)
		os.Exit(1)
	}

	scheduler.Start()
	defer scheduler.Stop()

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go func() {
		err := configs.Watch(watchCtx, func() {
			task := tasks.NewReloadConfigTask(configs, tasks.SourceWatcher)
			if err := scheduler.EnqueueTask(task); err != nil {
				slog.Warn("Failed to enqueue config reload", "error", err)
			}
		})
		if err != nil {
			slog.Warn("Topics file watcher stopped", "error", err)
		}
	}()

	handler := api.NewHandler(c, pipeline, configs, scheduler)
	server := api.NewServer(handler, c.APIKey)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", "error", err)
	}

	// Scheduler and state store are stopped via defer
	slog.Info("Shutdown complete")
}

func setupLogger(c *cfg.Cfg) {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
