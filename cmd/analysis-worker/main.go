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
	"github.com/synaptica-ai/bloodwork/pkg/observability/metrics"
	"github.com/synaptica-ai/bloodwork/pkg/reports"
)

func main() {
	logger.Init("analysis-worker")
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

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.ExtractedReportsTopic, cfg.KafkaGroupID).
		WithObserver(metrics.ObserveEvent)
	defer consumer.Close()

	var dlq reports.Publisher
	if cfg.DeadLetterTopic != "" {
		dlqProducer := kafka.NewProducer(cfg.KafkaBrokers, cfg.DeadLetterTopic)
		defer dlqProducer.Close()
		dlq = dlqProducer
		consumer.WithDeadLetter(dlqProducer)
	}

	svc := reports.NewService(pipeline, validator, repo, cache, producer, dlq, cfg.BatchConcurrency, cfg.BatchMaxReports)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Log.WithFields(map[string]interface{}{
			"topic": cfg.ExtractedReportsTopic,
			"group": cfg.KafkaGroupID,
		}).Info("Analysis Worker consuming")

		err := consumer.Consume(ctx, svc.HandleEvent)
		if err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Fatal("Consumer error")
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Analysis Worker...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}
	select {
	case <-done:
	case <-ctxShutdown.Done():
		logger.Log.Warn("Consumer did not stop in time")
	}

	logger.Log.Info("Analysis Worker stopped")
}
