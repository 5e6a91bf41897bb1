// Command api runs the contract analysis backend.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/contractai/backend/pkg/ai"
	"github.com/contractai/backend/pkg/api"
	"github.com/contractai/backend/pkg/billing"
	"github.com/contractai/backend/pkg/billing/dodo"
	prombilling "github.com/contractai/backend/pkg/billing/metrics/prometheus"
	stripeprovider "github.com/contractai/backend/pkg/billing/stripe"
	"github.com/contractai/backend/pkg/config"
	"github.com/contractai/backend/pkg/contracts"
	"github.com/contractai/backend/pkg/ledger"
	zerologadapter "github.com/contractai/backend/pkg/ledger/logger/zerolog"
	promledger "github.com/contractai/backend/pkg/ledger/metrics/prometheus"
	"github.com/contractai/backend/storage/memory"
	"github.com/contractai/backend/storage/postgres"
	"github.com/contractai/backend/storage/redis"
)

const metricsNamespace = "contractai"

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerologadapter.NewLogger(log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("opening storage backend: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	ledgerService, err := ledger.NewService(store, ledger.Config{
		Logger:  logger,
		Metrics: promledger.NewMetrics(registry, metricsNamespace),
	})
	if err != nil {
		return fmt.Errorf("creating ledger: %w", err)
	}

	contractStore, err := contracts.NewStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("creating contract store: %w", err)
	}

	var aiClient *ai.Client
	if cfg.LLMAPIKey != "" {
		aiClient, err = ai.NewClient(ai.Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("creating ai client: %w", err)
		}
	} else {
		log.Warn().Msg("LLM_API_KEY not set, analysis endpoints will degrade")
	}

	billingMetrics := prombilling.NewMetrics(registry, metricsNamespace)

	dodoProvider, err := dodo.NewProvider(dodo.Config{
		WebhookSecret: cfg.DodoWebhookSecret,
		CheckoutBase:  cfg.DodoCheckoutBase,
		ProductID:     cfg.DodoProProductID,
		ReturnURL:     cfg.DodoReturnURL,
		Ledger:        ledgerService,
		Logger:        logger,
		Metrics:       billingMetrics,
	})
	if err != nil {
		return fmt.Errorf("creating dodo provider: %w", err)
	}

	var stripeProvider billing.Provider
	if cfg.StripeAPIKey != "" || cfg.StripeWebhookSecret != "" {
		stripeProvider, err = stripeprovider.NewProvider(stripeprovider.Config{
			APIKey:        cfg.StripeAPIKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			PriceID:       cfg.StripePriceID,
			SuccessURL:    cfg.StripeSuccessURL,
			CancelURL:     cfg.StripeCancelURL,
			Ledger:        ledgerService,
			Logger:        logger,
			Metrics:       billingMetrics,
		})
		if err != nil {
			return fmt.Errorf("creating stripe provider: %w", err)
		}
	}

	server, err := api.NewServer(api.Config{
		Ledger:         ledgerService,
		Contracts:      contractStore,
		AI:             aiClient,
		Dodo:           dodoProvider,
		Stripe:         stripeProvider,
		Logger:         logger,
		FrontendURL:    cfg.FrontendURL,
		EnforceCredits: cfg.EnforceCredits,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", server.Router())

	httpServer := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info().
			Str("addr", httpServer.Addr).
			Str("storage", cfg.StorageBackend).
			Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// openStore builds the ledger storage backend selected by config. The
// returned cleanup closes backend resources and may be nil.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ledger.Store, func(), error) {
	switch cfg.StorageBackend {
	case "memory":
		log.Warn().Msg("using in-memory storage, credits will not survive restarts")
		return memory.New(), nil, nil

	case "redis":
		opts, err := redisclient.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		client := redisclient.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		store, err := redis.New(client, redis.DefaultConfig())
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = client.Close() }, nil

	case "postgres":
		storeCfg := postgres.DefaultConfig()
		storeCfg.ConnectionString = cfg.DatabaseURL
		store, err := postgres.New(ctx, storeCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
