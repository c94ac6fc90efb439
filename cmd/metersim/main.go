// v3
// main.go

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/pratikpanchal22/multi-source-energy-meter/internal/api"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/broker"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/config"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/control"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/logging"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/metrics"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/sim"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/telemetry"
)

func main() {
	logger := logging.Init()
	logger.Info("energy meter simulator starting")
	metrics.Init()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}

	store := sim.NewStore()
	hub := telemetry.NewHub(logger, cfg.SubscriberBuffer)

	// One broadcast cadence for the whole meter: each period the subscribers
	// get exactly one composite event built from a consistent snapshot.
	broadcaster := telemetry.NewBroadcaster(logger, hub, store, cfg.TickInterval)

	seed := time.Now().UnixNano()
	consumed := sim.NewSimulator(logger, sim.SourceConsumed, cfg.TickInterval, seed, 5.0, store)
	generated := sim.NewSimulator(logger, sim.SourceGenerated, cfg.TickInterval, seed+1, 4.0, store)
	sources := []control.Source{consumed, generated}

	brokers := broker.NewConfigStore(broker.Config{
		Kind:           cfg.BrokerKind,
		Host:           cfg.BrokerHost,
		Port:           cfg.BrokerPort,
		TopicPrefix:    cfg.TopicPrefix,
		Username:       cfg.BrokerUsername,
		Password:       cfg.BrokerPassword,
		TLS:            cfg.BrokerTLS,
		CACert:         cfg.BrokerCACert,
		PublishEnabled: cfg.PublishEnabled,
	})
	processor := control.New(logger, sources, brokers)

	var backend broker.Backend
	switch cfg.BrokerKind {
	case broker.KindKafka:
		backend = broker.NewKafkaBackend(logger)
	default:
		backend = broker.NewMQTTBackend(logger, brokerControl(logger, processor, sources))
	}
	publisher := broker.NewPublisher(logger, brokers, store, backend,
		cfg.PublishInterval, cfg.BackoffMin, cfg.BackoffMax, cfg.AttemptTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	consumed.Run(ctx)
	generated.Run(ctx)
	broadcaster.Run(ctx)
	processor.Run(ctx)
	publisher.Run(ctx)

	server := api.NewServer(logger, hub, processor, store, brokers, publisher, sources)
	logged := handlers.LoggingHandler(os.Stdout, server.Router())
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: logged}
	go func() {
		logger.Info("http listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			cancel()
		}
	}()

	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
	hub.Close()
	time.Sleep(300 * time.Millisecond)
	logger.Info("shutdown complete")
}

// brokerControl maps inbound broker control payloads (PAUSE/RESUME, as sent
// on the control topic) onto stop/start actions for all sources, routed
// through the serialized processor like any other control request.
func brokerControl(logger *slog.Logger, processor *control.Processor, sources []control.Source) func([]byte) {
	return func(payload []byte) {
		var kind string
		switch strings.ToUpper(strings.TrimSpace(string(payload))) {
		case "PAUSE":
			kind = control.KindStop
		case "RESUME":
			kind = control.KindStart
		default:
			logger.Warn("unknown broker control payload", "payload", string(payload))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, src := range sources {
			if res := processor.Apply(ctx, control.Action{Kind: kind, Source: src.Name()}); !res.Accepted {
				logger.Warn("broker control action rejected", "action", kind, "source", src.Name(), "reason", res.Reason)
			}
		}
	}
}
