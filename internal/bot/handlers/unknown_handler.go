package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewUnknownCommandHandler returns the admin bot's default handler. It
// replies to anything that is not a registered command.
func NewUnknownCommandHandler(deps *HandlerDeps) bot.HandlerFunc {
	return unknownCommandHandler{deps}.Handle
}

type unknownCommandHandler struct {
	deps *HandlerDeps
}

func (h unknownCommandHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "unknown_command")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	log.InfoContext(ctx, "Unknown admin command", "chat_id", update.Message.Chat.ID, "text", update.Message.Text)
	sendText(ctx, b, log, update.Message.Chat.ID, h.deps.Config.BotMsgUnknownCommand)
}
