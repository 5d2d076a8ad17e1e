package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/prism-platform/riskengine/internal/config"
	"github.com/prism-platform/riskengine/internal/httpapi"
	"github.com/prism-platform/riskengine/internal/logging"
	"github.com/prism-platform/riskengine/internal/metrics"
	"github.com/prism-platform/riskengine/internal/riskassess"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional; PRISM_* env vars otherwise)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	var caller riskassess.NarrativeCaller
	if cfg.Provider.Disabled {
		logger.Warn("narrative provider disabled, all assessments will run in fallback mode")
	} else {
		caller, err = riskassess.NewAnthropicCaller(cfg.Provider.APIKey, cfg.Provider.Model, cfg.Provider.MaxTokens)
		if err != nil {
			logger.Fatal("provider setup failed", zap.Error(err))
		}
	}

	weights, err := cfg.CategoryWeights()
	if err != nil {
		logger.Fatal("invalid weights", zap.Error(err))
	}

	m := metrics.New()
	engine := riskassess.NewEngine(caller, riskassess.EngineConfig{
		Weights:         weights,
		MaxConcurrent:   cfg.Engine.MaxConcurrent,
		ProviderTimeout: cfg.Provider.Timeout,
	}, logger.Named("engine"), m)

	handler := httpapi.NewServer(engine, logger.Named("http"), httpapi.Options{
		Version:         version,
		ProviderEnabled: caller != nil,
		MaxConcurrent:   cfg.Engine.MaxConcurrent,
		Registry:        m.Registry(),
		Rejections:      m,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("riskengine listening",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("version", version),
			zap.String("methodology", riskassess.MethodologyVersion))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}
}
