package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/artisticvicky/mocktest-bot/internal/config"
	"github.com/artisticvicky/mocktest-bot/internal/delivery/telegram"
	"github.com/artisticvicky/mocktest-bot/internal/infra/api"
	"github.com/artisticvicky/mocktest-bot/internal/infra/postgres"
	"github.com/artisticvicky/mocktest-bot/internal/infra/postgres/repository"
	"github.com/artisticvicky/mocktest-bot/internal/logger"
	"github.com/artisticvicky/mocktest-bot/internal/ops"
	"github.com/artisticvicky/mocktest-bot/internal/service"
	"github.com/artisticvicky/mocktest-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("bot stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	bot.Debug = cfg.Env != "production"
	lg.Info("authorized on telegram", zap.String("account", bot.Self.UserName))

	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "login", Description: "Log in: /login <email or mobile> <password>"},
		{Command: "mock", Description: "Course mock test: /mock <course id>"},
		{Command: "papers", Description: "Previous year papers: /papers <course id>"},
		{Command: "pyq", Description: "Start a paper: /pyq <paper id>"},
		{Command: "attempts", Description: "Your attempts: /attempts [mock|pyq] [from] [to]"},
		{Command: "review", Description: "Review an attempt: /review <mock|pyq> <id>"},
		{Command: "logout", Description: "Forget your account"},
		{Command: "help", Description: "Help"},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	dsn, err := cfg.DB.DSN()
	if err != nil {
		return err
	}
	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        cfg.DB.MaxConnections,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
		ConnectTimeout:  cfg.DB.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(pool)
	credRepo := repository.NewCredentialsRepository(pool)
	transactor := postgres.NewTransactor(pool)
	repos := func(db postgres.DBTX) (service.UserRepository, service.CredentialStore) {
		return repository.NewUserRepository(db), repository.NewCredentialsRepository(db)
	}

	client, err := api.New(api.Config{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		RefreshLeeway: cfg.API.RefreshLeeway,
	}, credRepo, lg.Named("api"))
	if err != nil {
		return err
	}

	runners := storage.NewRunnerStorage()
	screens := storage.NewScreenStorage()
	reviews := storage.NewReviewStorage()

	authService := service.NewAuthService(client, userRepo, transactor, repos, lg)
	testService := service.NewTestService(client, runners, cfg.Test.Policy(), lg.Named("runner"))
	reviewService := service.NewReviewService(client, authService, reviews, cfg.Attempts.WindowDays)
	sweepService := service.NewSweepService(runners, screens, reviews, cfg.Sweep.Schedule, cfg.Sweep.Retention, lg)

	handler := telegram.NewHandler(bot, lg, authService, testService, reviewService, screens, telegram.Options{
		TestDuration: cfg.Test.Duration,
		TimerRefresh: cfg.Telegram.TimerRefresh,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return handler.Run(gctx) })
	g.Go(func() error { return sweepService.Start(gctx) })
	if cfg.HTTP.Addr != "" {
		srv := ops.NewServer(cfg.HTTP.Addr, pool, runners, lg.Named("ops"))
		g.Go(func() error { return srv.Run(gctx) })
	}

	err = g.Wait()
	lg.Info("shutdown signal received")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
