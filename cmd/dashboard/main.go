package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/xela07ax/ddos-dashboard/internal/cache"
	"github.com/xela07ax/ddos-dashboard/internal/console/handler"
	"github.com/xela07ax/ddos-dashboard/internal/console/server"
	"github.com/xela07ax/ddos-dashboard/internal/console/service"
	"github.com/xela07ax/ddos-dashboard/internal/engine"
	"github.com/xela07ax/ddos-dashboard/internal/infra"
	"github.com/xela07ax/ddos-dashboard/internal/repository/elastic"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Контекст жизненного цикла: SIGINT/SIGTERM отменяет его
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Хранилище: клиент, проверка доступности при старте
	esClient, err := elastic.NewClient(elastic.ClientConfig{
		ConnectionString: cfg.Elastic.URL,
		RequestTimeout:   cfg.Elastic.RequestTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer esClient.Stop()

	attackRepo, err := elastic.NewAttackRepo(esClient, cfg.Elastic.URL, logger)
	if err != nil {
		return err
	}
	pingCtx, pingCancel := context.WithTimeout(appCtx, cfg.Elastic.PingTimeout)
	err = attackRepo.Ping(pingCtx)
	pingCancel()
	if err != nil {
		return fmt.Errorf("elasticsearch unreachable: %w", err)
	}

	// 3. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := engine.NewMetrics(reg)

	// 4. Надежность и сервис (Dependency Injection)
	reliable := engine.NewReliableRepo(attackRepo, cfg.Reliability, metrics, logger)
	dashService := service.NewDashboardService(reliable, cfg.Dashboard.MaxDays, metrics, logger)

	// 5. Опциональный кэш снапшотов
	if rdb := cache.NewRedisClient(cfg.Redis); rdb != nil {
		defer rdb.Close()
		if snapCache := cache.NewSnapshotCache(rdb, cfg.Cache.TTL, logger); snapCache != nil {
			dashService.WithCache(snapCache)
			go func() {
				if err := engine.WarmupSnapshot(appCtx, snapCache, logger, cfg.Dashboard.DefaultDays, dashService.Warmup); err != nil {
					logger.Warn("snapshot warm-up failed", zap.Error(err))
				}
			}()
			logger.Info("snapshot cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Cache.TTL))
		}
	}

	// 6. HTTP Server
	dashHandler := handler.NewDashboardHandler(dashService, cfg.Dashboard.DefaultDays, cfg.Dashboard.MaxDays, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.NewDashboardServer(logger, reg, dashHandler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 7. Graceful Shutdown
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-appCtx.Done():
	}
	logger.Info("dashboard stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("dashboard exited properly")
	return nil
}
