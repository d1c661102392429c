// Package main
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kardiachain/circulation-backend/api"
	"github.com/kardiachain/circulation-backend/app"
	"github.com/kardiachain/circulation-backend/cache"
	"github.com/kardiachain/circulation-backend/cfg"
	"github.com/kardiachain/circulation-backend/metrics"
	"github.com/kardiachain/circulation-backend/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("no .env file, reading configuration from environment")
	}

	serviceCfg, err := cfg.New()
	if err != nil {
		panic(err.Error())
	}

	if err := setupSentry(serviceCfg); err != nil {
		panic(err)
	}
	defer sentry.Flush(2 * time.Second)

	logger, err := newLogger(serviceCfg)
	if err != nil {
		panic("cannot init logger")
	}
	defer func() {
		_ = logger.Sync()
	}()
	logger.Info("Start API server...")

	chains, err := serviceCfg.Chains()
	if err != nil {
		logger.Panic("cannot load chain table", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	cacheClient, err := cache.New(cache.Config{
		Adapter:     cache.Adapter(serviceCfg.CacheEngine),
		URL:         serviceCfg.CacheURL,
		DB:          serviceCfg.CacheDB,
		Password:    serviceCfg.CachePassword,
		KeyPrefix:   serviceCfg.CacheKeyPrefix,
		Database:    serviceCfg.CacheDatabase,
		DialTimeout: serviceCfg.CacheDialTimeout,
		Logger:      logger,
	})
	if err != nil {
		logger.Panic("cannot connect to cache", zap.Error(err))
	}
	defer cacheClient.Close()

	srv, err := server.New(server.Config{
		Chains:  chains,
		Cache:   cacheClient,
		Metrics: m,
		Logger:  logger.With(zap.String("service", "query")),
	})
	if err != nil {
		logger.Panic("cannot create server instance", zap.Error(err))
	}

	e := api.New(api.NewHandler(srv, logger), serviceCfg, m)

	err = app.NewApp().
		WithService(app.NewHTTPService("api", serviceCfg.Port, e, logger)).
		WithService(app.Interrupter{}).
		Run(context.Background())
	if errors.Is(err, app.ErrInterrupted) {
		logger.Info("api stopped", zap.String("reason", err.Error()))
		return
	}
	logger.Error("api exited", zap.Error(err))
}
