// Package handlers contains Telegram bot command and message handlers for
// both the main conversation bot and the admin bot, along with their
// registration logic and middleware.
package handlers

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mkuznets/gatebot/internal/database"
)

// ActivationGate creates a middleware for the main bot that only lets
// registered, active users through. /start and /help always pass, so anyone
// can request access and read the instructions. Unknown, pending and banned
// senders get the corresponding explanation instead.
func ActivationGate(deps *HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil || msg.From == nil {
				// Callback queries resolve their sender themselves.
				next(ctx, b, update)
				return
			}

			if isOpenCommand(msg.Text) {
				next(ctx, b, update)
				return
			}

			log := deps.Logger.With("middleware", "activation_gate")

			user, err := deps.Store.GetUserByTelegramID(ctx, msg.From.ID)
			if err != nil {
				log.ErrorContext(ctx, "Failed to look up sender", "error", err, "user_id", msg.From.ID)
				sendText(ctx, b, log, msg.Chat.ID, deps.Config.BotMsgGeneralError)
				return
			}

			var denial string
			switch {
			case user == nil:
				denial = deps.Config.BotMsgAccessUnknown
			case user.State == database.UserStateBanned:
				denial = deps.Config.BotMsgAccessBanned
			case user.State != database.UserStateActive:
				denial = deps.Config.BotMsgAccessPending
			}
			if denial != "" {
				log.InfoContext(ctx, "Rejected message from non-active sender", "user_id", msg.From.ID)
				sendText(ctx, b, log, msg.Chat.ID, denial)
				return
			}

			next(ctx, b, update)
		}
	}
}

// isOpenCommand reports whether text is one of the commands available to
// everyone regardless of activation state.
func isOpenCommand(text string) bool {
	command, _ := SplitCommand(text)
	return command == "/start" || command == "/help"
}

// AdminOnly creates a middleware that checks if the sender is the configured
// admin user. Everyone else gets a "not authorized" reply and processing
// stops.
func AdminOnly(deps *HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, b, update)
				return
			}

			userID := update.Message.From.ID
			if userID != deps.Config.AdminUserID {
				log := deps.Logger.With("middleware", "admin_only")
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", userID, "chat_id", update.Message.Chat.ID)
				sendText(ctx, b, log, update.Message.Chat.ID, deps.Config.BotMsgNotAuthorized)
				return
			}

			next(ctx, b, update)
		}
	}
}

// SplitCommand splits a message text into the leading /command (with any
// @botname suffix stripped) and the remaining argument string. The command
// is empty if the text does not start with a slash.
func SplitCommand(text string) (command, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	command = text
	if idx := strings.IndexAny(text, " \t\n"); idx != -1 {
		command = text[:idx]
		args = strings.TrimSpace(text[idx:])
	}
	if at := strings.Index(command, "@"); at != -1 {
		command = command[:at]
	}
	return command, args
}
