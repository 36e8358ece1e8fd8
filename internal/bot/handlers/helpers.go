package handlers

import (
	"context"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
)

// sendText sends a plain text message and logs delivery failures.
func sendText(ctx context.Context, b *tgbot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}
