package app

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const drainTimeout = 5 * time.Second

// Run поднимает runtime витрины, служебный HTTP-сервер и публикацию событий и ждёт отмены ctx.
func Run(ctx context.Context, cfg Config, options ...RuntimeOption) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var opts RuntimeOptions
	for _, option := range options {
		option(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	options = append(options, WithRegisterer(registry), WithLogger(logger))

	rt, err := NewRuntime(ctx, cfg, options...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("failed to close state store")
		}
	}()

	var worker *outbox.Worker
	producer := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(producer, logger)
	if producer != nil {
		worker = outbox.NewWorker(rt.outbox, kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, cfg.KafkaDLQTopic)),
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithMetrics(rt.outboxMetrics),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		go worker.Run(ctx)
	}

	go rt.WatchProfile(ctx)

	healthHandler := newHealthHandler(rt, producer != nil)
	_, errCh := startOpsServer(ctx, cfg.OpsAddr, newOpsRouter(rt, healthHandler, registry), logger)

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки")
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}
	}

	if worker != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		sent := worker.Drain(drainCtx)
		cancel()
		logger.WithField("sent", sent).Info("outbox drained")
	}
	return ctx.Err()
}

func newHealthHandler(rt *Runtime, kafkaEnabled bool) *healthcheck.Handler {
	handler := healthcheck.NewHandler(version.Version())
	handler.RegisterChecker("state_store", healthcheck.NewChecker("state_store", rt.state.Ping))
	handler.RegisterChecker("api", healthcheck.NewOptionalChecker("api", rt.client.Healthy))
	if kafkaEnabled {
		handler.RegisterChecker("outbox", healthcheck.NewOptionalChecker("outbox", func(context.Context) error {
			_, err := rt.outbox.Stats()
			return err
		}))
	}
	return handler
}
