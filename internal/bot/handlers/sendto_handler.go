package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/mkuznets/gatebot/internal/database"
)

// NewSendToHandler returns the admin handler for
// /sendto <id|@username> <text>. The message is recorded in the recipient's
// private conversation as a bot turn and delivered through the main bot.
func NewSendToHandler(deps *HandlerDeps) bot.HandlerFunc {
	return sendToHandler{deps}.Handle
}

type sendToHandler struct {
	deps *HandlerDeps
}

func (h sendToHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "sendto")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Sendto handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	_, args := SplitCommand(update.Message.Text)
	recipient, text, err := SplitRecipientArgs(args)
	if err != nil {
		sendText(ctx, b, log, chatID, "Usage: /sendto <telegram_id|@username> <text>")
		return
	}

	user, err := resolveRecipient(ctx, h.deps.Store, recipient)
	if err != nil {
		log.ErrorContext(ctx, "Failed to look up user", "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}
	if user == nil {
		sendText(ctx, b, log, chatID, "User not found.")
		return
	}

	if err := deliverAsBot(ctx, h.deps, user, text); err != nil {
		log.ErrorContext(ctx, "Failed to deliver message", "error", err, "user_id", user.ID)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}

	log.InfoContext(ctx, "Message delivered to user", "user_id", user.ID, "telegram_id", user.TelegramID)
	sendText(ctx, b, log, chatID, fmt.Sprintf("Message sent to user %d.", user.TelegramID))
}

// deliverAsBot records text as a bot turn in the user's private conversation
// and sends it to the user through the main bot.
func deliverAsBot(ctx context.Context, deps *HandlerDeps, user *database.User, text string) error {
	botUser, err := deps.Store.GetBotUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve bot user: %w", err)
	}

	group, err := deps.Store.GetPrivateGroup(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve private group: %w", err)
	}

	if _, err := deps.Store.PostMessage(ctx, botUser.ID, group.ID, text); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	if deps.MainBot == nil {
		return fmt.Errorf("main bot is not configured")
	}
	if _, err := deps.MainBot.SendMessage(ctx, &bot.SendMessageParams{ChatID: user.TelegramID, Text: text}); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// NewSendToChatHandler returns the admin handler for
// /sendtochat <chat_id> <text>, which sends text to an arbitrary chat
// through the main bot. If the chat is a known group, the message is also
// recorded there as a bot turn.
func NewSendToChatHandler(deps *HandlerDeps) bot.HandlerFunc {
	return sendToChatHandler{deps}.Handle
}

type sendToChatHandler struct {
	deps *HandlerDeps
}

func (h sendToChatHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "sendtochat")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Sendtochat handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	_, args := SplitCommand(update.Message.Text)
	recipient, text, err := SplitRecipientArgs(args)
	if err != nil || recipient.TelegramID == 0 {
		sendText(ctx, b, log, chatID, "Usage: /sendtochat <chat_id> <text>")
		return
	}
	targetChatID := recipient.TelegramID

	if h.deps.MainBot == nil {
		log.ErrorContext(ctx, "Main bot is not configured")
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}
	if _, err := h.deps.MainBot.SendMessage(ctx, &bot.SendMessageParams{ChatID: targetChatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message to chat", "error", err, "target_chat_id", targetChatID)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}

	h.recordIfKnownGroup(ctx, targetChatID, text)

	log.InfoContext(ctx, "Message delivered to chat", "target_chat_id", targetChatID)
	sendText(ctx, b, log, chatID, "Message sent to chat "+strconv.FormatInt(targetChatID, 10)+".")
}

func (h sendToChatHandler) recordIfKnownGroup(ctx context.Context, telegramChatID int64, text string) {
	log := h.deps.Logger.With("handler", "sendtochat")

	group, err := h.deps.Store.GetGroupByTelegramID(ctx, strconv.FormatInt(telegramChatID, 10))
	if err != nil || group == nil {
		return
	}
	botUser, err := h.deps.Store.GetBotUser(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve bot user", "error", err)
		return
	}
	if _, err := h.deps.Store.PostMessage(ctx, botUser.ID, group.ID, text); err != nil {
		log.ErrorContext(ctx, "Failed to record chat message", "error", err, "group_id", group.ID)
	}
}
