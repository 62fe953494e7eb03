package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/plantshop-bot/internal/access"
	"github.com/Proton-105/plantshop-bot/internal/bot"
	"github.com/Proton-105/plantshop-bot/internal/bot/handlers"
	"github.com/Proton-105/plantshop-bot/internal/database"
	"github.com/Proton-105/plantshop-bot/internal/dialog"
	"github.com/Proton-105/plantshop-bot/internal/domain"
	apperrors "github.com/Proton-105/plantshop-bot/internal/errors"
	"github.com/Proton-105/plantshop-bot/internal/health"
	"github.com/Proton-105/plantshop-bot/internal/i18n"
	"github.com/Proton-105/plantshop-bot/internal/idempotency"
	"github.com/Proton-105/plantshop-bot/internal/lifecycle"
	"github.com/Proton-105/plantshop-bot/internal/lock"
	"github.com/Proton-105/plantshop-bot/internal/middleware"
	"github.com/Proton-105/plantshop-bot/internal/notify"
	"github.com/Proton-105/plantshop-bot/internal/ratelimit"
	"github.com/Proton-105/plantshop-bot/internal/shop"
	"github.com/Proton-105/plantshop-bot/internal/state"
	"github.com/Proton-105/plantshop-bot/internal/storage"
	"github.com/Proton-105/plantshop-bot/pkg/config"
	"github.com/Proton-105/plantshop-bot/pkg/graceful"
	"github.com/Proton-105/plantshop-bot/pkg/logger"
	"github.com/Proton-105/plantshop-bot/pkg/metrics"
	"github.com/Proton-105/plantshop-bot/pkg/redis"
)

const (
	sentryFlushTimeout  = 2 * time.Second
	rateLimitCleanEvery = time.Minute
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Sentry.Enabled {
		flush, err := logger.InitSentry(logger.SentryOptions{
			DSN:              cfg.Sentry.DSN,
			Environment:      cfg.AppEnv,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		})
		if err != nil {
			return err
		}
		defer flush(sentryFlushTimeout)
	}

	log := logger.New(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		FilePath:   cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Sentry:     cfg.Sentry.Enabled,
	})
	slog.SetDefault(log)

	log.Info("starting plant shop bot",
		slog.String("env", cfg.AppEnv),
		slog.String("storage", cfg.Storage.Backend),
		slog.String("state", cfg.State.Backend),
		slog.Int("admins", len(cfg.Admins)),
	)

	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log)

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		shutdown.Register("redis", func(context.Context) error { return rdb.Close() })
		checker.AddCheck("redis", health.NewRedisChecker(rdb))
	}

	blob, err := openStorage(ctx, cfg, rdb, log, shutdown, checker)
	if err != nil {
		return err
	}
	blob = storage.WithMetrics(blob, cfg.Storage.Backend)
	checker.AddCheck("storage", blob)

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Lock.Backend == "redis" {
		locker = lock.NewRedisLocker(rdb.Client, cfg.Lock.TTL, log)
	}

	var stateStorage state.Storage = state.NewMemoryStorage()
	if cfg.State.Backend == "redis" {
		stateStorage = state.NewRedisStorage(rdb.Client, log, cfg.State.TTL)
	}
	fsm := state.NewStateMachine(stateStorage, log, locker)

	svc := shop.NewService(shop.NewStore(blob, log), locker, log, shop.Options{BookingTTL: cfg.Booking.TTL})

	locales, err := i18n.Load(cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	t := locales.Translator(cfg.Bot.Language)

	admins := access.NewAdmins(cfg.Admins, log)
	config.Watch(v, log, admins.Replace)

	tb, err := bot.NewTelebot(cfg.Bot, log)
	if err != nil {
		return err
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(tb))

	username := cfg.Bot.Username
	if username == "" && tb.Me != nil {
		username = tb.Me.Username
	}
	deepLink := bot.DeepLinker(username)

	fanout := notify.NewFanout(bot.NewSender(tb), log)
	engine := dialog.NewEngine(fsm, svc, fanout, admins, t, log, dialog.Options{
		ChannelID: cfg.ChannelID,
		DeepLink:  deepLink,
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	spawn := func(fn func(context.Context)) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			fn(workerCtx)
		}()
	}

	rateLimit := newRateLimit(cfg, rdb, admins, log, spawn)
	dedupe := newIdempotency(cfg, rdb, log)

	b := bot.New(tb, cfg.Bot, bot.Options{
		Deps: handlers.Deps{
			Shop:     svc,
			Dialogs:  engine,
			Notifier: fanout,
			Admins:   admins,
			T:        t,
			DeepLink: deepLink,
			Log:      log,
		},
		ErrHandler:  apperrors.NewHandler(log, cfg.Sentry.Enabled),
		RateLimit:   rateLimit,
		Idempotency: dedupe,
		DedupeTTL:   cfg.Dedupe.TTL,
	}, log)

	if cfg.Booking.TTL > 0 {
		sweeper := shop.NewSweeper(svc, log, cfg.Booking.SweepInterval, func(ctx context.Context, booking domain.Booking) {
			fanout.Notify(ctx, "customer", booking.ChatID, notify.Message{
				Text: t.Tf("booking.expired_customer", booking.PlantName),
			})
		})
		spawn(sweeper.Run)
	}
	spawn(metrics.NewStateCollector(fsm).Run)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.ReadinessHandler())
	mux.Handle("/livez", health.LivenessHandler())
	srv := graceful.NewServer(log, &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           logger.Middleware(middleware.New(log)(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.Server.ShutdownTimeout)
	spawn(func(ctx context.Context) {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("metrics server stopped", slog.Any("error", err))
		}
	})

	shutdown.Register("workers", func(context.Context) error {
		stopWorkers()
		workers.Wait()
		return nil
	})
	shutdown.Register("bot", func(context.Context) error {
		b.Stop()
		return nil
	})

	go b.Start()
	log.Info("bot started", slog.String("username", username))

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return shutdown.Execute(shutdownCtx)
}

func openStorage(
	ctx context.Context,
	cfg *config.Config,
	rdb *redis.Client,
	log *slog.Logger,
	shutdown *lifecycle.Shutdown,
	checker *health.Checker,
) (storage.Blob, error) {
	switch cfg.Storage.Backend {
	case "redis":
		return storage.NewRedisBlob(redis.NewMetricsClient(rdb), log), nil
	case "postgres":
		db, err := database.Open(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		shutdown.Register("postgres", func(context.Context) error { return db.Close() })
		checker.AddCheck("postgres", health.NewDBChecker(db))

		if err := database.NewMigrator(db, log).ApplyEmbedded(ctx); err != nil {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return storage.NewPostgresBlob(db, log), nil
	case "file", "":
		return storage.NewFileBlob(cfg.Storage.Dir, log)
	default:
		return nil, errors.New("unknown storage backend: " + cfg.Storage.Backend)
	}
}

func newRateLimit(
	cfg *config.Config,
	rdb *redis.Client,
	admins *access.Admins,
	log *slog.Logger,
	spawn func(func(context.Context)),
) *middleware.RateLimitMiddleware {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	memory := ratelimit.NewMemoryLimiter(log)
	spawn(ratelimit.NewCleaner(memory, log, rateLimitCleanEvery, cfg.RateLimit.Window).Run)

	var limiter ratelimit.Limiter = memory
	if cfg.RateLimit.Backend == "redis" {
		limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(rdb.Client, log), memory, log)
	}

	return middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit, admins.IsAdmin), log)
}

func newIdempotency(cfg *config.Config, rdb *redis.Client, log *slog.Logger) idempotency.Manager {
	if !cfg.Dedupe.Enabled {
		return nil
	}

	var store idempotency.Store = idempotency.NewMemoryStore()
	if cfg.Dedupe.Backend == "redis" {
		store = idempotency.NewRedisStore(rdb.Client, log)
	}
	return idempotency.NewManager(store, log)
}
