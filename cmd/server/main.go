package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	consenthandler "pawty/internal/consent/handler"
	cmetrics "pawty/internal/consent/metrics"
	debughandler "pawty/internal/debug/handler"
	"pawty/internal/platform/config"
	"pawty/internal/platform/health"
	"pawty/internal/platform/kafka/producer"
	"pawty/internal/platform/kvstore"
	"pawty/internal/platform/logger"
	redisclient "pawty/internal/platform/redis"
	"pawty/internal/session"
	sessionhandler "pawty/internal/session/handler"
	smetrics "pawty/internal/session/metrics"
	"pawty/internal/session/sweeper"
	"pawty/internal/telemetry/datalayer"
	tmetrics "pawty/internal/telemetry/metrics"
	"pawty/internal/telemetry/relay"
	httptransport "pawty/internal/transport/http"
	"pawty/pkg/platform/circuit"
	"pawty/pkg/platform/clock"
	"pawty/pkg/platform/middleware/metadata"
	"pawty/pkg/platform/middleware/request"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing pawty",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"kv_backend", cfg.KV.Backend,
		"relay_enabled", cfg.RelayEnabled(),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	telemetryMetrics := tmetrics.New(reg)
	consentMetrics := cmetrics.New(reg)
	sessionMetrics := smetrics.New(reg)
	requestMetrics := request.NewMetrics(reg)
	clk := clock.Real()

	healthHandler := health.New(cfg.Environment)
	g, gctx := errgroup.WithContext(ctx)

	kv, closeKV, err := openKV(gctx, g, cfg, reg, healthHandler, clk)
	if err != nil {
		return err
	}
	defer closeKV()

	queueOpts := []datalayer.Option{
		datalayer.WithCapacity(cfg.Relay.QueueCapacity),
		datalayer.WithClock(clk),
		datalayer.WithMetrics(telemetryMetrics),
	}
	if !cfg.RelayEnabled() {
		// nothing acks the queue without a relay
		queueOpts = append(queueOpts, datalayer.WithDropOldest())
	}
	queue := datalayer.NewQueue(queueOpts...)

	registry := session.NewRegistry(session.Deps{
		Sink:               queue,
		Propagator:         datalayer.NewConsentPropagator(queue),
		KV:                 kv,
		Clock:              clk,
		Logger:             log,
		TelemetryMetrics:   telemetryMetrics,
		ConsentMetrics:     consentMetrics,
		ConsentTTL:         cfg.Consent.TTL,
		PromptDelay:        cfg.Consent.PromptDelay,
		IdleTimeout:        cfg.Session.IdleTimeout,
		EngagementInterval: cfg.Session.EngagementInterval,
	},
		session.WithMaxSessions(cfg.Session.MaxSessions),
		session.WithMetrics(sessionMetrics),
	)
	healthHandler.RegisterGauge("sessions", registry.Len)
	healthHandler.RegisterGauge("datalayer_queue", queue.Len)

	sweep := sweeper.New(registry,
		sweeper.WithLogger(log),
		sweeper.WithInterval(cfg.Session.SweepInterval),
		sweeper.WithTTL(cfg.Session.TTL),
		sweeper.WithMetrics(sessionMetrics),
		sweeper.WithClock(clk),
	)
	g.Go(func() error { return sweep.Start(gctx) })

	// The relay outlives gctx: it is stopped by shutdown once sessions have
	// pushed their final reports.
	relayCtx, stopRelay := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRelay()

	if cfg.RelayEnabled() {
		pcfg := producer.DefaultConfig(cfg.Kafka.Brokers)
		pcfg.ClientID = cfg.Kafka.ClientID
		prod, err := producer.New(pcfg, log)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer func() {
			if err := prod.Close(); err != nil {
				log.Error("failed to close kafka producer", "error", err)
			}
		}()
		healthHandler.RegisterCheck("kafka", prod.Health)

		worker := relay.New(queue, prod,
			relay.WithTopic(cfg.Kafka.Topic),
			relay.WithBatchSize(cfg.Relay.BatchSize),
			relay.WithPollInterval(cfg.Relay.Interval),
			relay.WithClock(clk),
			relay.WithMetrics(telemetryMetrics),
			relay.WithLogger(log),
			relay.WithBreaker(circuit.New("kafka", circuit.WithClock(clk))),
		)
		healthHandler.RegisterCheck("relay", worker.Health)
		g.Go(func() error { return worker.Run(relayCtx) })
	} else {
		log.Warn("kafka brokers not configured, data layer keeps only the newest records",
			"capacity", cfg.Relay.QueueCapacity,
		)
	}

	proxies, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}

	router := httptransport.NewRouter(httptransport.Handlers{
		Health:   healthHandler,
		Sessions: sessionhandler.New(registry, log),
		Consent:  consenthandler.New(httptransport.ConsentLookup(registry), log),
		Debug:    debughandler.New(httptransport.DebugLookup(registry), log),
	}, httptransport.Config{
		Logger:         log,
		Gatherer:       reg,
		RequestMetrics: requestMetrics,
		TrustedProxies: proxies,
		CookieSecure:   cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return shutdown(shutdownCtx, srv, registry, stopRelay)
	})

	return g.Wait()
}

type httpShutdowner interface {
	Shutdown(ctx context.Context) error
}

type sessionCloser interface {
	Close(ctx context.Context)
}

// shutdown stops accepting requests and unloads every session before it
// stops the relay, so the relay's drain sees the final engagement reports.
func shutdown(ctx context.Context, srv httpShutdowner, sessions sessionCloser, stopRelay context.CancelFunc) error {
	defer stopRelay()

	err := srv.Shutdown(ctx)
	sessions.Close(ctx)
	if err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// openKV builds the consent store selected by PAWTY_KV_BACKEND. Redis pool
// statistics are published from a goroutine in g until ctx ends.
func openKV(
	ctx context.Context,
	g *errgroup.Group,
	cfg config.Server,
	reg prometheus.Registerer,
	healthHandler *health.Handler,
	clk clock.Clock,
) (kvstore.KV, func(), error) {
	noop := func() {}

	switch cfg.KV.Backend {
	case config.KVFile:
		f, err := kvstore.OpenFile(cfg.KV.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("open consent file: %w", err)
		}
		return f, noop, nil

	case config.KVRedis:
		client, err := redisclient.New(ctx, cfg.Redis, redisclient.NewPoolMetrics(reg))
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		healthHandler.RegisterCheck("redis", client.Health)
		g.Go(func() error { return client.RunPoolStats(ctx, clk, poolStatsInterval) })
		return kvstore.NewRedis(client.Client), func() {
			if err := client.Close(); err != nil {
				slog.Error("failed to close redis client", "error", err)
			}
		}, nil

	default:
		return kvstore.NewMemory(), noop, nil
	}
}
