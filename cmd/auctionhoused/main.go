package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"auctionhouse/cmd/internal/passphrase"
	"auctionhouse/config"
	"auctionhouse/core/events"
	"auctionhouse/core/state"
	"auctionhouse/native/auctioneer"
	"auctionhouse/native/auctionhouse"
	"auctionhouse/native/token"
	"auctionhouse/observability"
	"auctionhouse/observability/logging"
	telemetry "auctionhouse/observability/otel"
	"auctionhouse/rpc"
	"auctionhouse/storage"
)

const operatorPassEnv = "AUCTIONHOUSE_OPERATOR_PASS"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	passSource := passphrase.NewSource(operatorPassEnv, "operator keystore")
	cfg, err := config.Load(*configFile, config.WithKeystorePassphraseSource(passSource.Get))
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.Setup("auctionhoused", cfg.Environment, logging.FileOptions{Path: cfg.LogFile})

	if err := run(cfg, logger); err != nil {
		logger.Error("auctionhoused stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "auctionhoused",
		Environment: cfg.Environment,
		Endpoint:    strings.TrimSpace(cfg.Telemetry.Endpoint),
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	mgr, err := state.Open(db)
	if err != nil {
		return err
	}
	mgr.SetRent(cfg.Rent.Schedule())
	hub := events.NewHub()
	mgr.SetEmitter(observability.NewEventRecorder(logger, hub))
	applied, err := applyGenesis(mgr, cfg.Genesis)
	if err != nil {
		return err
	}
	if applied {
		logger.Info("genesis applied", slog.Int("allocations", len(cfg.Genesis)), slog.String("root", mgr.Hash().Hex()))
	}

	assets := token.NewProgram()
	engine := auctionhouse.NewEngine(assets)
	engine.SetPauses(cfg.Pauses)
	auctions := auctioneer.New(engine, assets)
	auctions.SetPauses(cfg.Pauses)

	jwtSecret, err := cfg.RPCJWT.Secret(os.LookupEnv)
	if err != nil {
		return err
	}
	server := rpc.NewServer(mgr, engine, auctions, assets, rpc.Config{
		Auth: rpc.AuthConfig{
			Token:     cfg.RPCAuthToken,
			JWTSecret: jwtSecret,
			Issuer:    cfg.RPCJWT.Issuer,
			ClockSkew: time.Duration(cfg.RPCJWT.ClockSkewSeconds) * time.Second,
		},
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		MaxBodyBytes:      cfg.RPCMaxBodyBytes,
		ReadTimeout:       time.Duration(cfg.RPCReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.RPCWriteTimeout) * time.Second,
		Logger:            logger,
		Events:            hub,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx, cfg.RPCAddress) })
	if cfg.MetricsAddress != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.MetricsAddress, logger) })
	}
	return g.Wait()
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics listening", slog.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
