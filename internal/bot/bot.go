// Package bot implements the core bot functionality, lifecycle management,
// and component orchestration for the GateBot application: the main
// conversation bot, the admin bot, and the task scheduler.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/mkuznets/gatebot/internal/config"
	"github.com/mkuznets/gatebot/internal/database"
	"github.com/mkuznets/gatebot/internal/llm"
)

// Bot represents the application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	db        *sqlx.DB
	store     database.Store
	llmClient llm.Client
	mainBot   *tgbot.Bot
	adminBot  *tgbot.Bot
	scheduler *Scheduler
}

// NewBot creates a new instance of the application with all required
// dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	db *sqlx.DB,
	store database.Store,
	llmClient llm.Client,
	mainBot *tgbot.Bot,
	adminBot *tgbot.Bot,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		db:        db,
		store:     store,
		llmClient: llmClient,
		mainBot:   mainBot,
		adminBot:  adminBot,
		scheduler: scheduler,
	}
}

// Run starts both bot listeners and the scheduler, handling graceful
// shutdown on context cancellation. It returns an error if any component
// fails during startup or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(b.runListener(gCtx, "main", b.mainBot))
	g.Go(b.runListener(gCtx, "admin", b.adminBot))

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}

func (b *Bot) runListener(ctx context.Context, name string, tg *tgbot.Bot) func() error {
	return func() error {
		b.logger.Info("Starting Telegram bot listener...", "bot", name)

		tg.Start(ctx)
		b.logger.Info("Telegram bot listener stopped.", "bot", name)

		if ctx.Err() == nil {
			b.logger.Warn("Telegram bot listener stopped unexpectedly without context cancellation.", "bot", name)
			return fmt.Errorf("%s bot listener stopped unexpectedly", name)
		}
		return nil
	}
}
