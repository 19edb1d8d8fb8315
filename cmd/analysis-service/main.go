package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/bloodwork/pkg/analysis"
	"github.com/synaptica-ai/bloodwork/pkg/common/config"
	"github.com/synaptica-ai/bloodwork/pkg/common/database"
	"github.com/synaptica-ai/bloodwork/pkg/common/kafka"
	"github.com/synaptica-ai/bloodwork/pkg/common/logger"
	"github.com/synaptica-ai/bloodwork/pkg/common/middleware"
	"github.com/synaptica-ai/bloodwork/pkg/observability/metrics"
	"github.com/synaptica-ai/bloodwork/pkg/reports"
)

func main() {
	logger.Init(reports.ServiceName)
	cfg := config.Load()

	db, err := database.GetPostgres(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer database.ClosePostgres()

	repo := reports.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate report tables")
	}

	cache := reports.NewRedisCache(database.GetRedis(cfg), cfg.ReportCachePrefix, cfg.ReportCacheTTL)
	defer database.CloseRedis()

	pipeline := analysis.Load(cfg.ReferenceTablePath, cfg.RiskRulesPath, cfg.BorderlineMargin)
	validator := reports.NewValidator(cfg.ReportAllowedSources, cfg.MaxParameters)

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.AnalyzedReportsTopic)
	defer producer.Close()

	var dlq reports.Publisher
	if cfg.DeadLetterTopic != "" {
		dlqProducer := kafka.NewProducer(cfg.KafkaBrokers, cfg.DeadLetterTopic)
		defer dlqProducer.Close()
		dlq = dlqProducer
	}

	svc := reports.NewService(pipeline, validator, repo, cache, producer, dlq, cfg.BatchConcurrency, cfg.BatchMaxReports)
	handler := reports.NewHTTPHandler(svc, cfg.MaxRequestBody)

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repo.Ping(ctx); err != nil {
			logger.Log.WithError(err).Warn("readiness check failed")
			http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Analysis Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Analysis Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Analysis Service stopped")
}
