package database

import "time"

// User lifecycle states. New users start inactive and are moved by the
// admin workflow; there is no transition out of banned.
const (
	UserStateInactive = "inactive"
	UserStateActive   = "active"
	UserStateBanned   = "banned"
)

// User roles. Exactly one bot-role user exists per deployment; it is the
// implicit author of assistant replies.
const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"
	UserRoleBot   = "bot"
)

// Group types mirror the Telegram chat types. Only private groups are
// created by the live flow, as a side effect of user registration.
const (
	GroupTypePrivate    = "private"
	GroupTypeGroup      = "group"
	GroupTypeSupergroup = "supergroup"
	GroupTypeChannel    = "channel"
)

// Conversation roles used when formatting a group context for the LLM.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// User represents a registered Telegram user.
type User struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	TelegramID       int64  `db:"telegram_id"`
	TelegramUsername string `db:"telegram_username"`
	State            string `db:"state"`
	Role             string `db:"role"`
}

// Group represents a conversation channel. It owns the full ordered history
// of its messages plus a distinguished subset, the active context, tracked
// in the group_context_messages join table.
type Group struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	TelegramID       string `db:"telegram_id"`
	Type             string `db:"type"`
	Title            string `db:"title"`
	TelegramUsername string `db:"telegram_username"`
}

// Message represents a single chat turn posted to a group. Evicting a
// message from a group's active context never removes it from history.
type Message struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	GroupID   int64     `db:"group_id"`
	UserID    int64     `db:"user_id"`
	Content   string    `db:"content"`
	Timestamp time.Time `db:"timestamp"`
}

// ChatEntry is one role-tagged entry of a formatted conversation, the exact
// shape handed to the LLM client.
type ChatEntry struct {
	Role    string
	Content string
}

// UserFields resolves query-engine field names for User records.
func UserFields(u User, field string) (any, bool) {
	switch field {
	case "id":
		return u.ID, true
	case "telegram_id":
		return u.TelegramID, true
	case "telegram_username":
		return u.TelegramUsername, true
	case "state":
		return u.State, true
	case "role":
		return u.Role, true
	case "created_at":
		return u.CreatedAt, true
	case "updated_at":
		return u.UpdatedAt, true
	}
	return nil, false
}
