package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"status-dashboard/internal/api"
	"status-dashboard/internal/backup"
	"status-dashboard/internal/config"
	"status-dashboard/internal/crypto"
	"status-dashboard/internal/db"
	"status-dashboard/internal/filemaker"
	"status-dashboard/internal/kafka"
	"status-dashboard/internal/logging"
	"status-dashboard/internal/providers"
	"status-dashboard/internal/scheduler"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	dbConn, err := db.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	// Alert delivery: email is authoritative, telegram is a best-effort mirror
	mailer := providers.NewBackupAlertMailer(cfg, logger)
	var mirrors []providers.AlertSender
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		mirrors = append(mirrors, providers.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.RateLimit, logger))
		logger.Infof("Telegram mirror enabled for chat %d", cfg.Telegram.ChatID)
	}
	dispatcher := providers.NewFanoutDispatcher(mailer, logger, mirrors...)

	hub := api.NewHub(logger)
	evaluator := backup.NewEvaluator(dbConn, dispatcher, logger,
		backup.WithLocker(dbConn),
		backup.WithPublisher(hub),
		backup.WithDispatchTimeout(cfg.BackupCheck.DispatchTimeout),
	)

	sched := scheduler.New(evaluator, cfg.BackupCheck.Timeout, logger)
	if err := sched.Start(cfg.BackupCheck.Schedule); err != nil {
		logger.Errorf("Failed to start backup check scheduler: %v", err)
		log.Fatalf("Scheduler start failed: %v", err)
	}

	var wg sync.WaitGroup
	var consumer *kafka.Consumer
	if cfg.Kafka.Broker != "" {
		consumer = kafka.NewConsumer(kafka.Config{Broker: cfg.Kafka.Broker, Topic: cfg.Kafka.Topic, GroupID: cfg.Kafka.GroupID}, dbConn, logger)
		logger.Infof("Kafka consumer initialized with topic: %s", cfg.Kafka.Topic)
		consumer.Start(ctx, &wg)
	}

	var fmService api.FileMakerService
	if cfg.Crypto.EncryptionKey != "" {
		enc, err := crypto.NewAesGcmEncryptor([]byte(cfg.Crypto.EncryptionKey))
		if err != nil {
			log.Fatalf("Invalid encryption key: %v", err)
		}
		fmClient := filemaker.NewClient(15 * time.Second)
		defer fmClient.Close()
		cache := filemaker.NewSessionCache(cfg.FileMaker.CacheSize, cfg.FileMaker.TokenTTL)
		fmService = filemaker.NewService(dbConn, dbConn, enc, fmClient, cache, mailer, logger)
	} else {
		logger.Warnf("ENCRYPTION_KEY not set, FileMaker status probes are disabled")
	}

	// Start API server
	handler := api.NewHandler(evaluator, dbConn, fmService, dbConn, logger, cfg.BackupCheck.Timeout)
	router := api.NewRouter(handler, hub, logger, cfg)
	srv := &http.Server{Addr: cfg.API.Port, Handler: router}
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API server shutdown failed: %v", err)
	}
	sched.Stop(shutdownCtx)
	if consumer != nil {
		consumer.Close()
	}
	wg.Wait()
	logger.Infof("Service stopped")
}
