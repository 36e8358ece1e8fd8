package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mkuznets/gatebot/internal/database"
	"github.com/mkuznets/gatebot/internal/query"
)

// NewBroadcastHandler returns the admin handler for /broadcast <text>. The
// message goes to every active user, recorded in each private conversation
// as a bot turn.
func NewBroadcastHandler(deps *HandlerDeps) bot.HandlerFunc {
	return broadcastHandler{deps}.Handle
}

type broadcastHandler struct {
	deps *HandlerDeps
}

func (h broadcastHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "broadcast")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Broadcast handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	_, text := SplitCommand(update.Message.Text)
	text = strings.TrimSpace(text)
	if text == "" {
		sendText(ctx, b, log, chatID, "Usage: /broadcast <text>")
		return
	}

	recipients, err := h.deps.Store.ListUsers(ctx, query.Domain{
		query.OpAnd,
		query.Condition{Field: "state", Op: "=", Value: database.UserStateActive},
		query.Condition{Field: "role", Op: "!=", Value: database.UserRoleBot},
	}, query.Options{Order: "id asc"})
	if err != nil {
		log.ErrorContext(ctx, "Failed to list broadcast recipients", "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}

	delivered := 0
	for i := range recipients {
		user := recipients[i]
		if err := deliverAsBot(ctx, h.deps, &user, text); err != nil {
			log.ErrorContext(ctx, "Failed to deliver broadcast message", "error", err, "user_id", user.ID)
			continue
		}
		delivered++
	}

	log.InfoContext(ctx, "Broadcast completed", "delivered", delivered, "recipients", len(recipients))
	sendText(ctx, b, log, chatID, fmt.Sprintf("Broadcast delivered to %d of %d users.", delivered, len(recipients)))
}
