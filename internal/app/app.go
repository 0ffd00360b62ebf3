// Package app assembles the parking service from configuration. The HTTP
// server, the Lambda adapter and the reconciler share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/billing"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/config"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/dynamo"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/flutterwave"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/httpx"
	kafkax "github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/kafka"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/memstore"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/parking"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/postgres"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/redisx"
	"github.com/iAmSherifCodes/SmartParking-Serverless-be/internal/webhook"
)

type App struct {
	Cfg   config.Config
	Log   *slog.Logger
	Svc   *parking.Service
	Redis *redis.Client // nil without REDIS_ADDR

	Producer *kafkax.Producer // nil without KAFKA_BROKERS
	closers  []func()
}

// New opens the configured store and optional redis and kafka clients.
// Close releases them.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	eng, err := billing.NewEngine(cfg.Rate())
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.RedisAddr != "" {
		a.Redis = redisx.New(cfg.RedisAddr)
		a.closers = append(a.closers, func() { _ = a.Redis.Close() })
	}

	var events parking.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		a.Producer = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
		a.Producer.Start(ctx)
		a.closers = append(a.closers, func() {
			a.Producer.Close()
			a.Producer.WaitClosed()
		})
		events = kafkax.NewEventBus(a.Producer, log)
	}

	a.Svc = &parking.Service{
		Store: store,
		Gateway: flutterwave.New(flutterwave.Config{
			BaseURL:     cfg.FlwBaseURL,
			SecretKey:   cfg.FlwSecretKey,
			Currency:    cfg.Currency,
			CompanyName: cfg.CompanyName,
			Timeout:     cfg.GatewayTimeout,
		}, log),
		Billing:     eng,
		Events:      events,
		Log:         log,
		Location:    cfg.Location(),
		Limits:      cfg.Limits(),
		RedirectURL: cfg.RedirectURL,
		ServiceName: cfg.ServiceName,
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) (parking.Store, error) {
	cfg := a.Cfg
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool); err != nil {
			return nil, err
		}
		return &postgres.Store{DB: pool}, nil

	case config.BackendDynamo:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		return dynamo.New(dynamodb.NewFromConfig(awsCfg), dynamo.Tables{
			Spaces:             cfg.SpaceTable,
			Payments:           cfg.PaymentTable,
			Reservations:       cfg.ReservationTable,
			ReservationHistory: cfg.ReservationHistoryTable,
		}), nil

	case config.BackendMemory:
		s := memstore.New()
		for _, n := range cfg.SeedSpaces {
			s.PutSpace(parking.Space{SpaceNumber: strings.ToUpper(n)})
		}
		a.Log.Warn("using in-memory store, state is lost on restart", "spaces", len(cfg.SeedSpaces))
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// Handler is the full HTTP surface: middleware, health check and the
// parking routes.
func (a *App) Handler() http.Handler {
	var cache webhook.OutcomeCache
	if a.Redis != nil {
		cache = redisx.NewResultCache(a.Redis)
	}

	r := httpx.NewRouter(httpx.RouterConfig{
		AllowedOrigins: a.Cfg.AllowedOrigins,
		Timeout:        a.Cfg.RequestTimeout + a.Cfg.GatewayTimeout,
		Log:            a.Log,
	})
	h := &httpx.ParkingHandler{
		Svc: a.Svc,
		Webhook: webhook.NewDispatcher(a.Svc, a.Svc.Gateway, webhook.Options{
			Cache:    cache,
			Currency: a.Cfg.Currency,
			Log:      a.Log,
		}),
		Verifier: webhook.NewVerifier(a.Cfg.WebhookSecret),
		Log:      a.Log,
		Debug:    a.Cfg.Debug(),
		Timeout:  a.Cfg.RequestTimeout,
	}
	h.Register(r)
	return r
}

// Flush waits until buffered events reach the brokers.
func (a *App) Flush(ctx context.Context) error {
	if a.Producer == nil {
		return nil
	}
	return a.Producer.Flush(ctx)
}

// Close releases clients in reverse order of opening. Buffered events are
// flushed before it returns.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
