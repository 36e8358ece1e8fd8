package handlers

import (
	"log/slog"

	tgbot "github.com/go-telegram/bot"

	"github.com/mkuznets/gatebot/internal/config"
	"github.com/mkuznets/gatebot/internal/database"
	"github.com/mkuznets/gatebot/internal/llm"
)

// HandlerDeps provides dependencies for Telegram command handlers.
//
// MainBot and AdminBot are set after both bot instances exist, which is why
// handlers receive the deps by pointer: the main bot notifies the admin
// through AdminBot, and admin commands deliver messages to users through
// MainBot.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	LLM    llm.Client

	MainBot  *tgbot.Bot
	AdminBot *tgbot.Bot
}
