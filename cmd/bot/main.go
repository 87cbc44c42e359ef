package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"burlang_bot/internal/config"
	"burlang_bot/internal/feature/decline"
	"burlang_bot/internal/feature/dialect"
	"burlang_bot/internal/feature/moderator"
	"burlang_bot/internal/feature/rating"
	"burlang_bot/internal/feature/submission"
	"burlang_bot/internal/feature/users"
	"burlang_bot/internal/health"
	"burlang_bot/internal/logging"
	"burlang_bot/internal/store"
	"burlang_bot/internal/telegram"
)

const (
	mongoConnectTimeout       = 10 * time.Second
	mongoIndexTimeout         = 5 * time.Second
	mongoDisconnectTimeout    = 5 * time.Second
	moderatorBootstrapTimeout = 5 * time.Second
	telegramShutdownTimeout   = 10 * time.Second
	healthShutdownTimeout     = 5 * time.Second
)

var processStart = time.Now()

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":    "startup",
		"mongo_db": cfg.MongoDB,
	}).Info("configuration loaded")

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.WithError(err).Error("mongo connection error")
		fmt.Fprintf(os.Stderr, "mongo connection error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	if err := mongoManager.EnsureBaseIndexes(indexCtx); err != nil {
		cancelIndexes()
		logger.WithError(err).Error("mongo index setup error")
		fmt.Fprintf(os.Stderr, "mongo index setup error: %v\n", err)
		os.Exit(1)
	}
	cancelIndexes()

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

	moderatorRegistrar := moderator.NewRegistrar(mongoManager.Users(), logger)
	moderatorCtx, cancelModerator := context.WithTimeout(context.Background(), moderatorBootstrapTimeout)
	if err := moderatorRegistrar.EnsureModerator(moderatorCtx, cfg.BotModeratorID); err != nil {
		cancelModerator()
		logger.WithError(err).Error("moderator bootstrap error")
		fmt.Fprintf(os.Stderr, "moderator bootstrap error: %v\n", err)
		os.Exit(1)
	}
	cancelModerator()

	wordStores := mongoManager.WordStores()
	userRegistrar := users.NewRegistrar(mongoManager.Users(), logger)
	userResolver := users.NewResolver(mongoManager.Users())
	dialectLookup := dialect.NewLookup(mongoManager.Dialects())
	ratingService := rating.NewService(mongoManager.Users(), logger)

	submissionHandler := submission.NewHandler(wordStores, userResolver, dialectLookup, ratingService, logger)
	declineHandler := decline.NewHandler(mongoManager, wordStores, mongoManager.DeclinedStore(), userResolver, logger)
	statsProvider := mongoManager.Stats()

	tgClient, err := telegram.NewClient(cfg, logger,
		telegram.WithSubmissionHandler(submissionHandler),
		telegram.WithDeclineHandler(declineHandler),
		telegram.WithStatsProvider(statsProvider),
		telegram.WithUserRegistrar(userRegistrar),
		telegram.WithProfileResolver(userResolver),
		telegram.WithProcessStart(processStart),
	)
	if err != nil {
		logger.WithError(err).Error("telegram client setup error")
		fmt.Fprintf(os.Stderr, "telegram client setup error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	healthServer := health.NewServer(cfg.HTTPPort, mongoManager, logger)
	go func() {
		if err := healthServer.ListenAndServe(); err != nil {
			logger.WithError(err).Error("health server error")
		}
	}()

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telegramCtx, cancelTelegram := context.WithCancel(context.Background())
	tgDone := make(chan struct{})

	go func() {
		tgClient.Start(telegramCtx)
		close(tgDone)
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping telegram polling")
	case <-tgDone:
		logger.WithField("event", "telegram_stopped_early").Warn("telegram client stopped before shutdown signal")
	}

	cancelTelegram()

	waitCtx, cancelWait := context.WithTimeout(context.Background(), telegramShutdownTimeout)
	select {
	case <-tgDone:
	case <-waitCtx.Done():
		logger.WithField("event", "telegram_shutdown_timeout").Warn("timed out waiting for telegram client to stop")
	}
	cancelWait()

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), healthShutdownTimeout)
	if err := healthServer.Shutdown(healthCtx); err != nil {
		logger.WithError(err).Error("health server shutdown error")
	}
	cancelHealth()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := mongoManager.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelShutdown()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}
