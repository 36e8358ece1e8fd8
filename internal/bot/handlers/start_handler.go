package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mkuznets/gatebot/internal/database"
)

// NewStartHandler returns a handler for the /start command. First contact
// registers the sender as a pending user and notifies the administrator;
// returning users get a reply matching their current state.
func NewStartHandler(deps *HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps *HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	from := update.Message.From
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", from.ID)

	user, err := h.deps.Store.GetUserByTelegramID(ctx, from.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to look up user", "error", err, "user_id", from.ID)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}

	if user == nil {
		user, err = h.deps.Store.CreateUser(ctx, from.ID, from.Username)
		if errors.Is(err, database.ErrConflict) {
			// Registered concurrently, treat as a returning user.
			user, err = h.deps.Store.GetUserByTelegramID(ctx, from.ID)
		}
		if err != nil || user == nil {
			log.ErrorContext(ctx, "Failed to register user", "error", err, "user_id", from.ID)
			sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
			return
		}

		log.InfoContext(ctx, "Registered new user", "user_id", user.ID, "telegram_id", from.ID)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgWelcomeNew)
		h.notifyAdmin(ctx, user)
		return
	}

	var reply string
	switch user.State {
	case database.UserStateActive:
		reply = h.deps.Config.BotMsgWelcomeActive
	case database.UserStateBanned:
		reply = h.deps.Config.BotMsgWelcomeBanned
	default:
		reply = h.deps.Config.BotMsgWelcomePending
	}
	sendText(ctx, b, log, chatID, reply)
}

// notifyAdmin tells the administrator, through the admin bot, that a new
// registration is waiting for a decision.
func (h startHandler) notifyAdmin(ctx context.Context, user *database.User) {
	log := h.deps.Logger.With("handler", "start")

	if h.deps.AdminBot == nil {
		log.WarnContext(ctx, "Admin bot not configured, skipping registration notification")
		return
	}

	name := "(no username)"
	if user.TelegramUsername != "" {
		name = "@" + user.TelegramUsername
	}
	text := fmt.Sprintf("New registration request from %s (ID %d).\nUse /approve %d or /reject %d.",
		name, user.TelegramID, user.TelegramID, user.TelegramID)

	sendText(ctx, h.deps.AdminBot, log, h.deps.Config.AdminUserID, text)
}
