package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mkuznets/gatebot/internal/database"
)

// NewApproveHandler returns the admin handler for /approve <id|@username>.
// It activates the user and lets them know through the main bot.
func NewApproveHandler(deps *HandlerDeps) bot.HandlerFunc {
	return moderationHandler{
		deps:     deps,
		command:  "/approve",
		newState: database.UserStateActive,
		verb:     "approved",
	}.Handle
}

// NewRejectHandler returns the admin handler for /reject <id|@username>.
// It bans the user and lets them know through the main bot.
func NewRejectHandler(deps *HandlerDeps) bot.HandlerFunc {
	return moderationHandler{
		deps:     deps,
		command:  "/reject",
		newState: database.UserStateBanned,
		verb:     "rejected",
	}.Handle
}

// moderationHandler implements the shared flow of /approve and /reject:
// resolve the referenced user, flip their state, notify them.
type moderationHandler struct {
	deps     *HandlerDeps
	command  string
	newState string
	verb     string
}

func (h moderationHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.command)

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Moderation handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	_, args := SplitCommand(update.Message.Text)
	recipient, err := ParseRecipient(args)
	if err != nil {
		sendText(ctx, b, log, chatID, fmt.Sprintf("Usage: %s <telegram_id|@username>", h.command))
		return
	}

	user, err := resolveRecipient(ctx, h.deps.Store, recipient)
	if err != nil {
		log.ErrorContext(ctx, "Failed to look up user", "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}
	if user == nil {
		sendText(ctx, b, log, chatID, fmt.Sprintf("User %s not found.", args))
		return
	}

	if err := h.deps.Store.SetUserState(ctx, user.ID, h.newState); err != nil {
		log.ErrorContext(ctx, "Failed to update user state", "error", err, "user_id", user.ID)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}

	log.InfoContext(ctx, "User moderated", "user_id", user.ID, "telegram_id", user.TelegramID, "new_state", h.newState)

	notice := h.deps.Config.BotMsgApproved
	if h.newState == database.UserStateBanned {
		notice = h.deps.Config.BotMsgRejected
	}
	if h.deps.MainBot != nil {
		sendText(ctx, h.deps.MainBot, log, user.TelegramID, notice)
	}

	sendText(ctx, b, log, chatID, fmt.Sprintf("User %d %s.", user.TelegramID, h.verb))
}

// resolveRecipient finds the stored user a Recipient refers to. Returns
// nil with no error when no such user exists.
func resolveRecipient(ctx context.Context, store database.Store, r Recipient) (*database.User, error) {
	if r.TelegramID != 0 {
		return store.GetUserByTelegramID(ctx, r.TelegramID)
	}
	return store.GetUserByUsername(ctx, r.Username)
}
