package main

import (
	"os"
	"time"

	"spendbot/internal/bot"
	"spendbot/internal/cli"
	"spendbot/internal/log"
	"spendbot/internal/report"
	"spendbot/internal/services"
	"spendbot/internal/trivia"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	ledger := services.NewLedgerService(repo)
	sharing := services.NewSharingService(repo)
	facts := trivia.NewClient(cfg.TriviaBaseURL, cfg.TriviaTimeout)
	charts := report.NewRenderer()

	dispatcher := bot.NewDispatcher(repo, ledger, sharing, facts, charts, cfg.DefaultCurrency)

	b, err := bot.New(cfg.BotToken, cfg.PollTimeoutSeconds, dispatcher, logger)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close repository", log.FieldError, err)
		}
	})

	logger.Info("Starting spendbot",
		"db_path", cfg.SQLiteDBPath,
		"poll_timeout_s", cfg.PollTimeoutSeconds,
		log.FieldCurrency, cfg.DefaultCurrency,
	)

	if err := b.Run(ctx); err != nil {
		logger.Error("Bot stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
