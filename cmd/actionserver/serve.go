package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/milk9111/actionengine/catalog"
	"github.com/milk9111/actionengine/config"
	"github.com/milk9111/actionengine/logging"
	"github.com/milk9111/actionengine/metrics"
	"github.com/milk9111/actionengine/replication"
	"github.com/milk9111/actionengine/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation and the control API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (overrides listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.ListenAddr = listen
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	content, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hub := replication.NewHub(log, m, cfg.SubscriberBuffer)
	defer hub.Close()
	journal := replication.NewJournal(cfg.JournalSize)

	world := server.NewWorld(content, server.Options{
		Logger:        log,
		Metrics:       m,
		Sink:          replication.Tee(journal, hub),
		MaxQueueDepth: cfg.MaxQueueDepth,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.WatchCatalog {
		watcher, err := catalog.NewWatcher(cfg.CatalogDir)
		if err != nil {
			return err
		}
		defer func() { _ = watcher.Close() }()
		go server.WatchCatalog(ctx, world, watcher, cfg.CatalogDir)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.NewRouter(world, hub, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		if err := world.Run(ctx, cfg.TickRate); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		log.Info("listening", zap.String("addr", cfg.ListenAddr), zap.Strings("actions", typeNames(content)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		log.Error("server failed", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		log.Warn("http shutdown", zap.Error(serr))
	}
	return err
}

func typeNames(c *catalog.Catalog) []string {
	types := c.Types()
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}
