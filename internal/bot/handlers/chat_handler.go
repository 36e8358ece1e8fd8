package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewChatHandler creates the main bot's default handler: every plain text
// message is stored in the sender's private conversation, relayed to the AI
// with the accumulated context, and the reply is stored and sent back.
// Unmatched commands get the unknown command reply instead.
func NewChatHandler(deps *HandlerDeps) bot.HandlerFunc {
	return chatHandler{deps}.Handle
}

type chatHandler struct {
	deps *HandlerDeps
}

func (h chatHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "chat")

	msg := update.Message
	if msg == nil || msg.From == nil || strings.TrimSpace(msg.Text) == "" {
		log.DebugContext(ctx, "Ignoring update with nil message, empty text, or nil sender", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	// Commands that reached the default handler are not registered ones.
	if strings.HasPrefix(text, "/") {
		log.InfoContext(ctx, "Unknown command", "chat_id", chatID, "text", text)
		sendText(ctx, b, log, chatID, deps.Config.BotMsgUnknownCommand)
		return
	}

	user, err := deps.Store.GetUserByTelegramID(ctx, msg.From.ID)
	if err != nil || user == nil {
		log.ErrorContext(ctx, "Failed to resolve sender", "error", err, "user_id", msg.From.ID)
		sendText(ctx, b, log, chatID, deps.Config.BotMsgGeneralError)
		return
	}

	if _, err := deps.Store.PostMessage(ctx, user.ID, 0, text); err != nil {
		log.ErrorContext(ctx, "Failed to store incoming message", "error", err, "user_id", user.ID)
		sendText(ctx, b, log, chatID, deps.Config.BotMsgGeneralError)
		return
	}

	group, err := deps.Store.GetPrivateGroup(ctx, user.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve private group", "error", err, "user_id", user.ID)
		sendText(ctx, b, log, chatID, deps.Config.BotMsgGeneralError)
		return
	}

	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping}); err != nil {
		log.DebugContext(ctx, "Failed to send typing action", "error", err, "chat_id", chatID)
	}

	conversation, err := deps.Store.FormatContext(ctx, group.ID, deps.Config.AIPersona)
	if err != nil {
		log.ErrorContext(ctx, "Failed to build conversation context", "error", err, "group_id", group.ID)
		sendText(ctx, b, log, chatID, deps.Config.BotMsgGeneralError)
		return
	}

	reply := deps.LLM.Complete(ctx, conversation)

	botUser, err := deps.Store.GetBotUser(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve bot user", "error", err)
		sendText(ctx, b, log, chatID, deps.Config.BotMsgGeneralError)
		return
	}

	if _, err := deps.Store.PostMessage(ctx, botUser.ID, group.ID, reply); err != nil {
		// The reply is still worth delivering even if it was not recorded.
		log.ErrorContext(ctx, "Failed to store bot reply", "error", err, "group_id", group.ID)
	}

	sendText(ctx, b, log, chatID, reply)
	log.DebugContext(ctx, "Chat exchange completed", "user_id", user.ID, "group_id", group.ID, "context_entries", len(conversation))
}
