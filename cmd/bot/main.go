package main

import (
	"os"

	"gatekeeper-bot/internal/bot"
	"gatekeeper-bot/internal/config"
	"gatekeeper-bot/internal/database"
	"gatekeeper-bot/internal/handlers"
	"gatekeeper-bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	// Logger config from env (LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT)
	loggerConfig := &logger.Config{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
		Output: getEnv("LOG_OUTPUT", "stdout"),
	}
	zapLogger, err := logger.New(loggerConfig, logger.DefaultServiceName)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Invalid configuration", zap.Error(err))
	}

	db, err := database.New(database.Config{
		Driver:   cfg.DBDriver,
		Path:     cfg.DBPath,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	zap.L().Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		zap.L().Fatal("Failed to run migrations", zap.Error(err))
	}

	b, err := bot.New(cfg, db)
	if err != nil {
		zap.L().Fatal("Failed to create bot", zap.Error(err))
	}

	zap.L().Info("Bot started successfully")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	// chat_member updates arrive only when requested explicitly.
	u.AllowedUpdates = []string{"message", "callback_query", "chat_member"}
	updates := b.API.GetUpdatesChan(u)

	for update := range updates {
		switch {
		case update.ChatMember != nil:
			handlers.HandleChatMemberUpdate(b, update.ChatMember)
		case update.CallbackQuery != nil:
			handlers.HandleCallbackQuery(b, update.CallbackQuery)
		case update.Message != nil:
			message := update.Message
			if !message.Chat.IsPrivate() {
				handlers.HandleGroupMessage(b, message)
				continue
			}
			if !message.IsCommand() {
				handlers.HandleMessage(b, message)
				continue
			}
			switch message.Command() {
			case "start":
				handlers.HandleStart(b, message)
			case "who":
				handlers.HandleWho(b, message)
			case "remove":
				handlers.HandleRemove(b, message)
			case "export":
				handlers.HandleExport(b, message)
			case "setup_instructions":
				handlers.HandleSetupInstructions(b, message)
			case "info":
				handlers.HandleInfo(b, message)
			default:
				b.SendAndForget(message.Chat.ID, "Неизвестная команда. Используйте /start.", nil)
			}
		}
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
