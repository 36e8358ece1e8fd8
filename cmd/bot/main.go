// Package main contains the entrypoint for the GateBot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/mkuznets/gatebot/internal/bot"
	"github.com/mkuznets/gatebot/internal/bot/handlers"
	"github.com/mkuznets/gatebot/internal/bot/tasks"
	"github.com/mkuznets/gatebot/internal/config"
	"github.com/mkuznets/gatebot/internal/database"
	"github.com/mkuznets/gatebot/internal/llm"
	"github.com/mkuznets/gatebot/internal/logger"
	"github.com/mkuznets/gatebot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// db, AI client, both bots, scheduler), handles graceful shutdown, and
// returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.LogJSON)
	log.Info("Logger initialized", "level", cfg.LogLevel, "json", cfg.LogJSON)

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.DBPath, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	botUser, err := store.EnsureBotUser(ctx, cfg.BotTelegramID, cfg.BotUsername)
	if err != nil {
		log.Error("Failed to bootstrap bot user", "error", err)
		return 1
	}
	log.Info("Bot user ready", "user_id", botUser.ID, "username", botUser.TelegramUsername)

	llmClient, err := llm.NewClient(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize LLM client", "error", err)
		return 1
	}

	deps := &handlers.HandlerDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
		LLM:    llmClient,
	}

	mainBot, err := telegram.NewTelegramBot(cfg.BotToken, log,
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.ActivationGate(deps)),
		tgbot.WithDefaultHandler(handlers.NewChatHandler(deps)),
	)
	if err != nil {
		log.Error("Failed to create main Telegram bot", "error", err)
		return 1
	}

	adminBot, err := telegram.NewTelegramBot(cfg.AdminBotToken, log,
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.AdminOnly(deps)),
		tgbot.WithDefaultHandler(handlers.NewUnknownCommandHandler(deps)),
	)
	if err != nil {
		log.Error("Failed to create admin Telegram bot", "error", err)
		return 1
	}

	deps.MainBot = mainBot
	deps.AdminBot = adminBot

	if err := telegram.RegisterHandlers(mainBot, log, handlers.RegisterAllCommands(deps)); err != nil {
		log.Error("Failed to register main bot handlers", "error", err)
		return 1
	}
	if err := telegram.RegisterHandlers(adminBot, log, handlers.RegisterAdminCommands(deps)); err != nil {
		log.Error("Failed to register admin bot handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, cfg.SchedulerTasks, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, db, store, llmClient, mainBot, adminBot, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
