package main

import (
	"go.uber.org/zap"

	"backend/internal/config"
	"backend/internal/notifier"
	"backend/internal/repository"
	"backend/internal/server"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Telegram notifications for flagged examples (optional)
	bot, err := notifier.NewBot(cfg.Notifications.Enabled, cfg.Notifications.TelegramBotToken,
		cfg.Notifications.TelegramChatID, logger)
	if err != nil {
		logger.Warn("Failed to initialize Telegram bot, continuing without it", zap.Error(err))
		bot = nil
	}

	// Initialize and run the server
	srv := server.NewServer(db, cfg, logger, bot)
	srv.Run(cfg.Server.Port)
}
