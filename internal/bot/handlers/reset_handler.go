package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	resetCallbackPrefix  = "reset_"
	resetCallbackConfirm = "reset_yes"
	resetCallbackCancel  = "reset_no"
)

// NewResetHandler returns a handler for the /reset_context command. It asks
// for confirmation with an inline keyboard; the actual reset happens in the
// callback handler.
func NewResetHandler(deps *HandlerDeps) bot.HandlerFunc {
	return resetHandler{deps}.Handle
}

type resetHandler struct {
	deps *HandlerDeps
}

func (h resetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reset")

	if update.Message == nil || update.Message.From == nil {
		log.ErrorContext(ctx, "Reset handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "User requested context reset", "chat_id", chatID, "user_id", update.Message.From.ID)

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: h.deps.Config.BotMsgResetYes, CallbackData: resetCallbackConfirm},
			{Text: h.deps.Config.BotMsgResetNo, CallbackData: resetCallbackCancel},
		}},
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.deps.Config.BotMsgResetPrompt,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reset confirmation prompt", "error", err, "chat_id", chatID)
	}
}

// NewResetCallbackHandler returns the handler for the reset confirmation
// inline keyboard. Confirming clears the sender's private conversation
// context, declining leaves it untouched.
func NewResetCallbackHandler(deps *HandlerDeps) bot.HandlerFunc {
	return resetCallbackHandler{deps}.Handle
}

type resetCallbackHandler struct {
	deps *HandlerDeps
}

func (h resetCallbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reset_callback")

	cb := update.CallbackQuery
	if cb == nil {
		log.ErrorContext(ctx, "Reset callback handler received update without callback query", "update_id", update.ID)
		return
	}

	// Stop the client-side loading indicator regardless of outcome.
	defer func() {
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID}); err != nil {
			log.ErrorContext(ctx, "Failed to answer callback query", "error", err)
		}
	}()

	if cb.Message.Message == nil {
		log.WarnContext(ctx, "Reset callback without accessible message, ignoring", "user_id", cb.From.ID)
		return
	}
	chatID := cb.Message.Message.Chat.ID

	if !strings.HasPrefix(cb.Data, resetCallbackPrefix) {
		log.WarnContext(ctx, "Unexpected callback data", "data", cb.Data)
		return
	}

	if cb.Data == resetCallbackCancel {
		log.InfoContext(ctx, "Context reset cancelled", "user_id", cb.From.ID)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgResetCancelled)
		return
	}

	user, err := h.deps.Store.GetUserByTelegramID(ctx, cb.From.ID)
	if err != nil || user == nil {
		log.ErrorContext(ctx, "Failed to resolve callback sender", "error", err, "user_id", cb.From.ID)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}

	group, err := h.deps.Store.GetPrivateGroup(ctx, user.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve private group", "error", err, "user_id", user.ID)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}

	if err := h.deps.Store.ResetContext(ctx, group.ID); err != nil {
		log.ErrorContext(ctx, "Failed to reset context", "error", err, "group_id", group.ID)
		sendText(ctx, b, log, chatID, h.deps.Config.BotMsgGeneralError)
		return
	}

	log.InfoContext(ctx, "Context reset completed", "user_id", user.ID, "group_id", group.ID)
	sendText(ctx, b, log, chatID, h.deps.Config.BotMsgResetDone)
}
