package handlers

import (
	"fmt"
	"strconv"
	"strings"
)

// Recipient identifies a user by numeric Telegram ID or by username,
// whichever form the admin typed.
type Recipient struct {
	TelegramID int64
	Username   string
}

// ParseRecipient interprets a single argument as a user reference. Numeric
// arguments are Telegram IDs, anything else is a username with an optional
// leading @.
func ParseRecipient(arg string) (Recipient, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Recipient{}, fmt.Errorf("missing user reference")
	}

	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if id <= 0 {
			return Recipient{}, fmt.Errorf("invalid telegram ID %q", arg)
		}
		return Recipient{TelegramID: id}, nil
	}

	username := strings.TrimPrefix(arg, "@")
	if username == "" {
		return Recipient{}, fmt.Errorf("invalid username %q", arg)
	}
	return Recipient{Username: username}, nil
}

// SplitRecipientArgs splits a command argument string into the user
// reference and the message text that follows it.
func SplitRecipientArgs(args string) (Recipient, string, error) {
	args = strings.TrimSpace(args)
	ref := args
	var text string
	if idx := strings.IndexAny(args, " \t\n"); idx != -1 {
		ref = args[:idx]
		text = strings.TrimSpace(args[idx:])
	}

	recipient, err := ParseRecipient(ref)
	if err != nil {
		return Recipient{}, "", err
	}
	if text == "" {
		return Recipient{}, "", fmt.Errorf("missing message text")
	}
	return recipient, text, nil
}
