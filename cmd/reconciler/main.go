package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/app"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/config"
	kafkax "github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/kafka"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/obs"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/reconciler"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/redisx"
)

func main() {
	cfg, err := config.Load()
	log := obs.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat, cfg.ServiceName+"-reconciler")
	if err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.ServiceName+"-reconciler", cfg.Stage, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer", "error", err)
		os.Exit(1)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup", "error", err)
		os.Exit(1)
	}

	w := &reconciler.Worker{
		Svc:         a.Svc,
		Requeue:     a.Producer,
		ServiceName: cfg.ServiceName + "-reconciler",
		Log:         log,
		Attempts:    cfg.ReconcilerAttempts,
		Backoff:     cfg.ReconcilerBackoff,
	}
	if a.Redis != nil {
		w.Dedup = redisx.NewResultCache(a.Redis)
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ReconcilerGroup, parking.TopicReconcileRequested, cfg.ReconcilerWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("reconciler started", "group", cfg.ReconcilerGroup,
			"topic", parking.TopicReconcileRequested, "workers", cfg.ReconcilerWorkers)
		if err := cons.Start(ctx, w.Handle); err != nil {
			log.Error("consumer exit", "error", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer...")
	cancel()
	<-done // workers drained
	a.Close()
	_ = shutdownTracer(context.Background())
}
