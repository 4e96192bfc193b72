// Command snapshotd is the standalone daemon embedding the snapshot core:
// it wires config, the embedded KV store, the tag/entry core, the
// directory watcher, and the HTTP surface into one running process.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/catalystgov/snapshotcore/config"
	"github.com/catalystgov/snapshotcore/core"
	"github.com/catalystgov/snapshotcore/httpapi"
	"github.com/catalystgov/snapshotcore/internal/blocking"
	"github.com/catalystgov/snapshotcore/internal/lock"
	"github.com/catalystgov/snapshotcore/internal/metrics"
	"github.com/catalystgov/snapshotcore/kv/boltkv"
	"github.com/catalystgov/snapshotcore/watcher"
)

func main() {
	app := &cli.App{
		Name:  "snapshotd",
		Usage: "serve voting-power snapshots over HTTP, rebuilt from a watched directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
			&cli.StringFlag{Name: "data-dir", Usage: "bbolt data directory (empty for an ephemeral store)"},
			&cli.StringFlag{Name: "watch-dir", Usage: "directory watched for <tag>-snapshot.json files"},
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "reader-root", Usage: "path prefix for the reader filter group"},
			&cli.StringFlag{Name: "update-root", Usage: "path prefix for the update filter group"},
			&cli.DurationFlag{Name: "debounce", Usage: "watcher debounce window"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, or error"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyFlagOverrides(c, &cfg)

	log, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var instanceLock *lock.Lock
	var db *boltkv.DB
	if cfg.DataDir != "" {
		instanceLock, err = lock.Acquire(cfg.DataDir)
		if err != nil {
			return err
		}
		defer func() { _ = instanceLock.Unlock() }()

		db, err = boltkv.Open(cfg.DataDir + "/snapshot.bolt")
		if err != nil {
			return err
		}
	} else {
		db, err = boltkv.OpenTemp()
		if err != nil {
			return err
		}
	}
	defer func() { _ = db.Close() }()

	reader, writer, err := core.New(db, log)
	if err != nil {
		return err
	}

	m := metrics.New()
	writer.WithObserver(m)
	reader = reader.WithObserver(m)

	w := watcher.New(cfg.WatchDir, writer, log).WithObserver(m)
	w.SetDebounce(cfg.Debounce)
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	pool := blocking.NewPool(cfg.ReadPoolSize)

	root := chi.NewRouter()
	root.Use(cors.Handler(cors.Options{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET", "PUT"}}))
	root.Mount(cfg.ReaderRoot, httpapi.ReaderRoutes(reader, pool, log))
	root.Mount(cfg.UpdateRoot, httpapi.UpdateRoutes(writer, pool, log))
	root.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: root}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("http server error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func applyFlagOverrides(c *cli.Context, cfg *config.Config) {
	if v := c.String("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := c.String("watch-dir"); v != "" {
		cfg.WatchDir = v
	}
	if v := c.String("listen"); v != "" {
		cfg.ListenAddr = v
	}
	if v := c.String("reader-root"); v != "" {
		cfg.ReaderRoot = v
	}
	if v := c.String("update-root"); v != "" {
		cfg.UpdateRoot = v
	}
	if v := c.Duration("debounce"); v != 0 {
		cfg.Debounce = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	var zc zap.Config
	switch level {
	case "debug":
		zc = zap.NewDevelopmentConfig()
	default:
		zc = zap.NewProductionConfig()
	}
	return zc.Build()
}
