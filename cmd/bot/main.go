package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stratuswap/stratus-bot/internal/bot"
	"github.com/stratuswap/stratus-bot/internal/database"
	"github.com/stratuswap/stratus-bot/internal/flow"
	"github.com/stratuswap/stratus-bot/internal/health"
	"github.com/stratuswap/stratus-bot/internal/idempotency"
	"github.com/stratuswap/stratus-bot/internal/jobs"
	jobhandlers "github.com/stratuswap/stratus-bot/internal/jobs/handlers"
	"github.com/stratuswap/stratus-bot/internal/ledger"
	"github.com/stratuswap/stratus-bot/internal/pricing"
	"github.com/stratuswap/stratus-bot/internal/swap"
	"github.com/stratuswap/stratus-bot/internal/wallet"
	"github.com/stratuswap/stratus-bot/pkg/config"
	"github.com/stratuswap/stratus-bot/pkg/graceful"
	"github.com/stratuswap/stratus-bot/pkg/logger"
	appredis "github.com/stratuswap/stratus-bot/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:         cfg.Log.Level,
		FilePath:      cfg.Log.FilePath,
		SentryEnabled: cfg.Sentry.Enabled,
	})
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	log.Info("starting stratus bot",
		slog.String("env", cfg.AppEnv),
		slog.String("network", cfg.Ledger.Network),
		slog.String("http_port", cfg.Server.Port))

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	if err := database.NewMigrator(db, log).ApplyDir(ctx, "migrations"); err != nil {
		return err
	}

	redisClient, err := appredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	machine := flow.NewMachine(flow.NewRedisStorage(redisClient.Client, log), log, redisClient.Client)

	wallets := wallet.NewService(wallet.NewRepository(db, log), log)

	ledgerClient := ledger.NewClient(ledger.Config{
		MirrorBaseURL:  cfg.Ledger.MirrorBaseURL,
		GatewayBaseURL: cfg.Ledger.GatewayBaseURL,
		Operator: ledger.Operator{
			AccountID:  cfg.Ledger.OperatorAccount,
			PrivateKey: cfg.Ledger.OperatorKey,
		},
		Timeout: cfg.Ledger.Timeout,
	})

	oracle := pricing.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.Network, cfg.Oracle.Timeout)
	quotes := pricing.NewService(oracle, cfg.Swap.DefaultPool, log)

	sequencer := swap.NewSequencer(ledgerClient, swap.NewBuilder(swap.BuilderConfig{
		RouterContract: cfg.Swap.RouterContract,
		WrappedNative:  cfg.Swap.WrappedNative,
		SwapGas:        cfg.Swap.SwapGas,
		ApproveGas:     cfg.Swap.ApproveGas,
	}), log)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	queue := jobs.NewManager(redisOpt, log)
	defer func() { _ = queue.Close() }()

	idem := idempotency.NewManager(idempotency.NewRedisStore(redisClient.Client, log), log)

	b, err := bot.New(*cfg, log, bot.Dependencies{
		Machine:     machine,
		Wallets:     wallets,
		Ledger:      ledgerClient,
		Quotes:      quotes,
		Sequencer:   sequencer,
		Queue:       queue,
		Idempotency: idem,
	})
	if err != nil {
		return err
	}

	worker := jobs.NewWorker(redisOpt, map[string]int{
		jobs.QueueCritical: 6,
		jobs.QueueDefault:  3,
		jobs.QueueLow:      1,
	}, log)
	worker.RegisterHandler(jobs.TaskTypeMessageDelete, jobhandlers.NewMessageDeleteHandler(b.Telebot(), log))

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped", slog.Any("error", err))
			stop()
		}
	}()
	defer worker.Shutdown()

	checker := health.NewChecker(log)
	checker.AddCheck("postgres", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
	checker.AddCheck("mirror", health.NewEndpointChecker(cfg.Ledger.MirrorBaseURL, cfg.Ledger.Timeout))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())
		status := http.StatusOK
		for _, v := range results {
			if v != "OK" {
				status = http.StatusServiceUnavailable
				break
			}
		}
		w.WriteHeader(status)
		for name, v := range results {
			_, _ = w.Write([]byte(name + ": " + v + "\n"))
		}
	})

	srv := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: logger.Middleware(mux),
	}, cfg.Server.ShutdownTimeout)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("http server stopped", slog.Any("error", err))
		}
	}()

	go b.Start()
	defer b.Stop()

	<-ctx.Done()
	log.Info("shutting down")

	return nil
}
