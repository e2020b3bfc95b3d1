package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/y4z1c1/SuiCity-Test3-sub000/config"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/allowlist"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/api"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/claims"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/eligibility"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/events"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/ledger"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/nonce"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/ownership"
	keys "github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/redis"
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/signer"
)

func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.SettingsObj

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Signer service failed")
	}
}

func run(ctx context.Context, cfg *config.Settings) error {
	kb := keys.NewKeyBuilder(cfg.RedisPrefix)

	// Redis backs nonces and events for every ownership backend
	redisClient, err := keys.NewClient(ctx, keys.Options{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	checks := map[string]api.HealthCheck{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}
	store, closeStore, err := buildOwnershipStore(ctx, cfg, redisClient, kb, checks)
	if err != nil {
		return err
	}
	defer closeStore()
	guard := ownership.NewGuard(store)

	mainnet, err := ledger.NewRPCClient(ledger.Options{
		URL:      cfg.MainnetRPCURL,
		Timeout:  cfg.RPCTimeout,
		RPS:      cfg.RPCRateLimit,
		Burst:    cfg.RPCBurst,
		PageSize: cfg.RPCPageSize,
	})
	if err != nil {
		return err
	}
	sources := claims.Sources{
		Mainnet: mainnet,
		Kiosk:   mainnet,
		Lists:   allowlist.NewFetcher(nil, cfg.AllowlistTTL, 0),
	}
	if cfg.TestnetRPCURL != "" {
		testnet, err := ledger.NewRPCClient(ledger.Options{
			URL:      cfg.TestnetRPCURL,
			Timeout:  cfg.RPCTimeout,
			RPS:      cfg.RPCRateLimit,
			Burst:    cfg.RPCBurst,
			PageSize: cfg.RPCPageSize,
		})
		if err != nil {
			return err
		}
		sources.Testnet = testnet
	}

	rules := eligibility.DefaultRules()
	if cfg.RulesPath != "" {
		if rules, err = eligibility.LoadRules(cfg.RulesPath); err != nil {
			return err
		}
	}
	rules = rules.WithListURLs(cfg.AllowlistURLs)

	claimSigner := buildSigner(cfg)

	var emitter events.Emitter = events.Nop{}
	if cfg.EventsEnabled {
		publisher, err := events.NewPublisher(redisClient, kb)
		if err != nil {
			return err
		}
		emitter = publisher
	}

	orchestrator, err := claims.New(claims.Config{
		Sources:     sources,
		Scorer:      eligibility.NewScorer(rules, guard),
		Guard:       guard,
		Signer:      claimSigner,
		Nonces:      nonce.NewRedisSource(redisClient, kb),
		Events:      emitter,
		ScanTimeout: cfg.ScanTimeout,
	})
	if err != nil {
		return err
	}

	var cities api.CityLoader
	if cfg.CityGameObject != "" {
		cities = ledger.CityReader{Reader: mainnet, GameID: cfg.CityGameObject}
	}

	server := api.NewServer(api.Options{
		Claimer: orchestrator,
		Signer:  claimSigner,
		Cities:  cities,
		Events:  emitter,
		Checks:  checks,
	})

	if cfg.MetricsEnabled {
		go func() {
			metricsServer := http.NewServeMux()
			metricsServer.Handle("/metrics", promhttp.Handler())

			log.WithField("port", cfg.MetricsPort).Info("Starting metrics server")
			if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), metricsServer); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Starting signer API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down signer service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildSigner(cfg *config.Settings) *signer.Signer {
	scheme, err := signer.ParseScheme(cfg.SignerScheme)
	if err != nil {
		log.WithError(err).Error("Claim signing disabled")
		return signer.Unconfigured(err)
	}
	s, err := signer.New(scheme, cfg.SignerPrivateKey, cfg.SignerPublicKey)
	if err != nil {
		log.WithError(err).Error("Claim signing disabled")
		return signer.Unconfigured(err)
	}
	return s
}

func buildOwnershipStore(ctx context.Context, cfg *config.Settings, client *goredis.Client, kb *keys.KeyBuilder, checks map[string]api.HealthCheck) (ownership.Store, func(), error) {
	switch cfg.OwnershipBackend {
	case config.OwnershipBackendPostgres:
		pool, err := ownership.ConnectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		store := ownership.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		checks["postgres"] = pool.Ping
		log.Info("Using postgres ownership store")
		return store, pool.Close, nil
	case config.OwnershipBackendMemory:
		return ownership.NewMemoryStore(), func() {}, nil
	default:
		store, err := ownership.NewRedisStore(client, kb, cfg.OwnershipCacheSize)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using redis ownership store")
		return store, func() {}, nil
	}
}
