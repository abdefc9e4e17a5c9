package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/floydspace/project-mgmt-graphql-go/config"
	"github.com/floydspace/project-mgmt-graphql-go/store"
	"github.com/floydspace/project-mgmt-graphql-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const serviceName = "project-mgmt-graphql"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config, error: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("failed to create logger, error: %v", err)
	}
	defer logger.Sync() // flushes buffer, if any

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Database.URI, cfg.Database.ConnectTimeout)
	if err != nil {
		return errors.Wrap(err, "failed to connect to data store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn("failed to close data store", zap.Error(err))
		}
	}()
	logger.Info("connected to data store", zap.String("uri", redact(cfg.Database.URI)))

	if cfg.App.SeedFrom != "" {
		data, err := utils.FetchBytes(cfg.App.SeedFrom)
		if err != nil {
			return errors.Wrap(err, "failed to read seed data")
		}
		stats, err := store.Seed(ctx, st, data)
		if err != nil {
			return err
		}
		logger.Info("seeded sample data",
			zap.String("from", cfg.App.SeedFrom),
			zap.Int("clients", stats.Clients),
			zap.Int("projects", stats.Projects))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := newMetrics(reg)

	schema, err := generateSchema(st, logger, m)
	if err != nil {
		return err
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: newRouter(routerDeps{
			ServiceName:    serviceName,
			Version:        cfg.App.Version,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Schema:         schema,
			Store:          st,
			Logger:         logger,
			Metrics:        m,
			Gatherer:       reg,
		}),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info(fmt.Sprintf("App is ready at http://localhost:%s/", cfg.Server.Port))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}
