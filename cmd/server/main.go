// Package main is the entry point for the service. It wires all dependencies
// using samber/do v2, starts the HTTP server and the saga background workers,
// and handles graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	adapthttp "github.com/jsamuelsen11/wemeet/internal/adapters/http"
	"github.com/jsamuelsen11/wemeet/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/wemeet/internal/adapters/http/middleware"

	"github.com/jsamuelsen11/wemeet/internal/adapters/clients/acl"
	"github.com/jsamuelsen11/wemeet/internal/adapters/messaging"
	"github.com/jsamuelsen11/wemeet/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen11/wemeet/internal/app"
	"github.com/jsamuelsen11/wemeet/internal/domain/project"
	"github.com/jsamuelsen11/wemeet/internal/domain/team"
	"github.com/jsamuelsen11/wemeet/internal/platform/config"
	"github.com/jsamuelsen11/wemeet/internal/platform/health"
	"github.com/jsamuelsen11/wemeet/internal/platform/httpclient"
	"github.com/jsamuelsen11/wemeet/internal/platform/logging"
	"github.com/jsamuelsen11/wemeet/internal/platform/telemetry"
	"github.com/jsamuelsen11/wemeet/internal/ports"
	"github.com/jsamuelsen11/wemeet/internal/saga"
	"github.com/jsamuelsen11/wemeet/internal/saga/participant"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE environment variable is required (e.g. local, dev, qa, prod)")
	}

	// Bootstrap: config, logger, telemetry.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, logger)

	// Resolve the server (eagerly wires the full graph).
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}

	store := do.MustInvoke[*sqlite.Store](injector)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing store", slog.Any("error", err))
		}
	}()

	// Register health checkers after the graph is wired.
	registry := do.MustInvoke[ports.HealthRegistry](injector)
	registry.Register(do.MustInvoke[*acl.BoardClient](injector))
	registry.Register(do.MustInvoke[*acl.WeClassClient](injector))

	// Wire the message channels: participants and remote bridges consume
	// commands, the dispatcher consumes replies.
	broker := do.MustInvoke[*messaging.Broker](injector)
	dispatcher := do.MustInvoke[*messaging.Dispatcher](injector)

	broker.Subscribe(saga.ReplyChannel, dispatcher.Handle)
	broker.Subscribe(saga.ChannelProjectService,
		participant.NewProjectEndpoint(store, logger).Handle)
	broker.Subscribe(saga.ChannelTeamService,
		participant.NewTeamEndpoint(store, logger).Handle)
	broker.Subscribe(saga.ChannelBoardService,
		participant.NewBoardBridge(do.MustInvoke[*acl.BoardClient](injector), store, logger).Handle)
	broker.Subscribe(saga.ChannelWeClassService,
		participant.NewWeClassBridge(do.MustInvoke[*acl.WeClassClient](injector), store, logger).Handle)

	// The event stream terminates in structured logs; without a consumer the
	// relay would redeliver every domain event forever.
	eventLog := messaging.NewEventLog(logger)
	broker.Subscribe(ports.EventChannel(project.AggregateType), eventLog.Handle)
	broker.Subscribe(ports.EventChannel(team.AggregateType), eventLog.Handle)

	// Background workers: outbox relay, reply dispatcher, deadline sweeper.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	relay := do.MustInvoke[*messaging.Relay](injector)
	sweeper := do.MustInvoke[*saga.Sweeper](injector)

	var workers sync.WaitGroup
	workers.Add(3)
	go func() { defer workers.Done(); relay.Run(workerCtx) }()
	go func() { defer workers.Done(); dispatcher.Run(workerCtx) }()
	go func() { defer workers.Done(); sweeper.Run(workerCtx) }()

	// Start server in background.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Graceful shutdown: drain HTTP requests first, then stop the workers so
	// in-flight requests can still enqueue outbox rows that get relayed.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Wait for Start() goroutine to return.
	<-serverErr

	stopWorkers()
	workers.Wait()

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp, cfg.Telemetry.ServiceName)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	do.Provide(injector, func(_ do.Injector) (*sqlite.Store, error) {
		return sqlite.Open(cfg.Database.Path)
	})

	do.Provide(injector, func(_ do.Injector) (*messaging.Broker, error) {
		return messaging.NewBroker(logger), nil
	})

	do.Provide(injector, func(i do.Injector) (*saga.Orchestrator, error) {
		store := do.MustInvoke[*sqlite.Store](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		orch := saga.NewOrchestrator(store, logger, metrics)
		orch.Register(
			saga.NewCreateProjectSaga(cfg.Saga.StepTimeout),
			saga.NewCancelProjectSaga(cfg.Saga.StepTimeout),
			saga.NewReviseProjectSaga(cfg.Saga.StepTimeout),
			saga.NewStartProjectSaga(cfg.Saga.StepTimeout),
		)
		return orch, nil
	})

	do.Provide(injector, func(i do.Injector) (*messaging.Dispatcher, error) {
		orch := do.MustInvoke[*saga.Orchestrator](i)
		return messaging.NewDispatcher(orch, logger, messaging.DispatcherConfig{
			Workers:     cfg.Dispatcher.Workers,
			QueueDepth:  cfg.Dispatcher.QueueDepth,
			MaxAttempts: cfg.Dispatcher.MaxAttempts,
			MinBackoff:  cfg.Dispatcher.MinBackoff,
			MaxBackoff:  cfg.Dispatcher.MaxBackoff,
		}), nil
	})

	do.Provide(injector, func(i do.Injector) (*messaging.Relay, error) {
		store := do.MustInvoke[*sqlite.Store](i)
		broker := do.MustInvoke[*messaging.Broker](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		return messaging.NewRelay(store, broker, logger, metrics, messaging.RelayConfig{
			PollInterval: cfg.Outbox.PollInterval,
			BatchSize:    cfg.Outbox.BatchSize,
			Lease:        cfg.Outbox.Lease,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
		}), nil
	})

	do.Provide(injector, func(i do.Injector) (*saga.Sweeper, error) {
		orch := do.MustInvoke[*saga.Orchestrator](i)
		store := do.MustInvoke[*sqlite.Store](i)
		return saga.NewSweeper(orch, store, logger, cfg.Saga.SweepInterval, cfg.Saga.SweepBatch), nil
	})

	do.Provide(injector, func(i do.Injector) (*acl.BoardClient, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		client := httpclient.New(&cfg.Clients.Board, "board-api", metrics, logger)
		return acl.NewBoardClient(client, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (*acl.WeClassClient, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		client := httpclient.New(&cfg.Clients.WeClass, "weclass-api", metrics, logger)
		return acl.NewWeClassClient(client, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.ProjectService, error) {
		store := do.MustInvoke[*sqlite.Store](i)
		orch := do.MustInvoke[*saga.Orchestrator](i)
		return app.NewProjectService(store, orch, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.TeamService, error) {
		store := do.MustInvoke[*sqlite.Store](i)
		return app.NewTeamService(store, logger), nil
	})

	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.ProjectHandler, error) {
		svc := do.MustInvoke[ports.ProjectService](i)
		return handlers.NewProjectHandler(svc), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.TeamHandler, error) {
		svc := do.MustInvoke[ports.TeamService](i)
		return handlers.NewTeamHandler(svc), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		registry := do.MustInvoke[ports.HealthRegistry](i)
		return handlers.NewHealthHandler(registry), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		projH := do.MustInvoke[*handlers.ProjectHandler](i)
		teamH := do.MustInvoke[*handlers.TeamHandler](i)
		healthH := do.MustInvoke[*handlers.HealthHandler](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		return adapthttp.NewRouter(projH, teamH, healthH,
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.CorrelationID(),
			middleware.OpenTelemetry(metrics),
			middleware.Logging(logger),
			middleware.Timeout(cfg.Server.WriteTimeout),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}
