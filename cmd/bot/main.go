package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"thermo-inspector/config"
	telegram "thermo-inspector/internal/api"
	"thermo-inspector/internal/container"
	"thermo-inspector/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.FromConfig(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if cfg.TelegramToken == "" {
		zl.Fatal().Msg("TELEGRAM_TOKEN is required")
	}

	// Собираем сервисы приложения
	appContainer, err := container.New(cfg, zl)
	if err != nil {
		zl.Fatal().Err(err).Msg("failed to build container")
	}

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.UserService, appContainer.InspectionService, zl)
	if err != nil {
		zl.Fatal().Err(err).Msg("failed to create bot")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zl.Info().Msg("bot is running")
	if err := bot.Run(ctx); err != nil {
		zl.Fatal().Err(err).Msg("bot error")
	}
	zl.Info().Msg("bot stopped")
}
