package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mkuznets/gatebot/internal/query"
)

// Store defines the interface for database operations. Each multi-write
// operation runs in its own transaction: it commits or rolls back as one
// unit and never leaves partial state visible to other transactions.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateUser registers a new user (state=inactive, role=user) and
	// atomically creates their private group containing the user and the
	// bot user. Returns ErrConflict if the telegram ID is already taken.
	CreateUser(ctx context.Context, telegramID int64, telegramUsername string) (*User, error)

	// EnsureBotUser returns the bot-role user, creating it (state=active)
	// if it does not exist yet. Called once at startup.
	EnsureBotUser(ctx context.Context, telegramID int64, telegramUsername string) (*User, error)

	// GetUserByID retrieves a user by internal ID. Returns nil, nil if not found.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByTelegramID retrieves a user by telegram ID. Returns nil, nil if not found.
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error)

	// GetUserByUsername retrieves the first user (by internal ID) with the
	// given telegram username. Returns nil, nil if not found.
	GetUserByUsername(ctx context.Context, telegramUsername string) (*User, error)

	// GetBotUser retrieves the unique bot-role user. Returns ErrNotFound
	// if it is missing, since every deployment must have one.
	GetBotUser(ctx context.Context) (*User, error)

	// ListUsers loads all users and filters them through the query engine.
	ListUsers(ctx context.Context, domain query.Domain, opts query.Options) ([]User, error)

	// SetUserState overwrites a user's state unconditionally; callers are
	// responsible for sane transitions. Returns ErrNotFound for a missing user.
	SetUserState(ctx context.Context, userID int64, state string) error

	// GetPrivateGroup retrieves the private group containing the given
	// user. Returns ErrNotFound if none exists, which for a correctly
	// created non-bot user indicates a broken invariant.
	GetPrivateGroup(ctx context.Context, userID int64) (*Group, error)

	// GetGroupByID retrieves a group by internal ID. Returns nil, nil if not found.
	GetGroupByID(ctx context.Context, id int64) (*Group, error)

	// GetGroupByTelegramID retrieves a group by telegram chat ID. Returns nil, nil if not found.
	GetGroupByTelegramID(ctx context.Context, telegramID string) (*Group, error)

	// PostMessage creates a message and appends it to the target group's
	// active context in one transaction. groupID 0 resolves to the
	// author's private group; an explicit groupID always wins.
	PostMessage(ctx context.Context, authorID int64, groupID int64, text string) (*Message, error)

	// ResetContext detaches every message currently in the group's active
	// context. History is untouched; resetting an empty context is a no-op.
	ResetContext(ctx context.Context, groupID int64) error

	// FormatContext returns the group's active context as role-tagged
	// entries in post order, preceded by a system entry with the persona.
	FormatContext(ctx context.Context, groupID int64, persona string) ([]ChatEntry, error)

	// GroupHistory retrieves the most recent 'limit' messages ever posted
	// to the group, newest first, regardless of context membership.
	GroupHistory(ctx context.Context, groupID int64, limit int) ([]Message, error)

	// DeleteMessage removes a message and its context membership. Generic
	// primitive; the live flow never deletes messages.
	DeleteMessage(ctx context.Context, messageID int64) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isUniqueViolation detects a SQLite unique-constraint failure. The modernc
// driver does not expose a typed error, so the message is matched.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// rollbackOnFailure logs rollback problems for a deferred tx cleanup. The
// caller sets *tx to nil after a successful commit to make this a no-op.
func (s *sqlxStore) rollbackOnFailure(ctx context.Context, tx **sqlx.Tx) {
	if *tx == nil {
		return
	}
	if rollbackErr := (*tx).Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
		s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
	}
}

const userColumns = `id, created_at, updated_at, telegram_id, telegram_username, state, role`

const groupColumns = `id, created_at, updated_at, telegram_id, type, title, telegram_username`

const messageColumns = `id, created_at, updated_at, group_id, user_id, content, timestamp`

// CreateUser registers a user together with their private group. The user
// row, the group row and both membership rows are written in a single
// transaction; if any step fails (including a missing bot user) nothing
// persists.
func (s *sqlxStore) CreateUser(ctx context.Context, telegramID int64, telegramUsername string) (*User, error) {
	if telegramID == 0 {
		return nil, fmt.Errorf("telegram_id cannot be zero")
	}

	now := time.Now().UTC()
	user := &User{
		CreatedAt:        now,
		UpdatedAt:        now,
		TelegramID:       telegramID,
		TelegramUsername: telegramUsername,
		State:            UserStateInactive,
		Role:             UserRoleUser,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for user creation", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", ErrPersistence, err)
	}
	defer s.rollbackOnFailure(ctx, &tx)

	result, err := tx.NamedExecContext(ctx, `
        INSERT INTO users (created_at, updated_at, telegram_id, telegram_username, state, role)
        VALUES (:created_at, :updated_at, :telegram_id, :telegram_username, :state, :role);
    `, user)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.WarnContext(ctx, "User already exists", "telegram_id", telegramID)
			return nil, fmt.Errorf("%w: user with telegram_id %d already exists", ErrConflict, telegramID)
		}
		s.logger.ErrorContext(ctx, "Error inserting user", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert user: %v", ErrPersistence, err)
	}
	if user.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("%w: failed to get user id: %v", ErrPersistence, err)
	}

	group := &Group{
		CreatedAt: now,
		UpdatedAt: now,
		Type:      GroupTypePrivate,
		Title:     fmt.Sprintf("Private group for %s", telegramUsername),
	}
	result, err = tx.NamedExecContext(ctx, `
        INSERT INTO groups (created_at, updated_at, telegram_id, type, title, telegram_username)
        VALUES (:created_at, :updated_at, :telegram_id, :type, :title, :telegram_username);
    `, group)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting private group", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert private group: %v", ErrPersistence, err)
	}
	if group.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("%w: failed to get group id: %v", ErrPersistence, err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO user_group_rels (user_id, group_id) VALUES (?, ?);`, user.ID, group.ID); err != nil {
		s.logger.ErrorContext(ctx, "Error inserting user membership", "user_id", user.ID, "group_id", group.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert user membership: %v", ErrPersistence, err)
	}

	var bot User
	err = tx.GetContext(ctx, &bot,
		`SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY id LIMIT 1;`, UserRoleBot)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Bot user missing during user creation", "telegram_id", telegramID)
		return nil, fmt.Errorf("%w: bot user", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up bot user: %v", ErrPersistence, err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO user_group_rels (user_id, group_id) VALUES (?, ?);`, bot.ID, group.ID); err != nil {
		s.logger.ErrorContext(ctx, "Error inserting bot membership", "bot_id", bot.ID, "group_id", group.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert bot membership: %v", ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit user creation", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("%w: failed to commit transaction: %v", ErrPersistence, err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "User created with private group",
		"user_id", user.ID, "telegram_id", telegramID, "group_id", group.ID)
	return user, nil
}

// EnsureBotUser returns the bot-role user, creating it if absent. The bot
// user gets no private group of its own.
func (s *sqlxStore) EnsureBotUser(ctx context.Context, telegramID int64, telegramUsername string) (*User, error) {
	bot, err := s.GetBotUser(ctx)
	if err == nil {
		return bot, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user := &User{
		CreatedAt:        now,
		UpdatedAt:        now,
		TelegramID:       telegramID,
		TelegramUsername: telegramUsername,
		State:            UserStateActive,
		Role:             UserRoleBot,
	}
	result, err := s.db.NamedExecContext(ctx, `
        INSERT INTO users (created_at, updated_at, telegram_id, telegram_username, state, role)
        VALUES (:created_at, :updated_at, :telegram_id, :telegram_username, :state, :role);
    `, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: telegram_id %d already belongs to a non-bot user", ErrConflict, telegramID)
		}
		s.logger.ErrorContext(ctx, "Error creating bot user", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("%w: failed to create bot user: %v", ErrPersistence, err)
	}
	if user.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("%w: failed to get bot user id: %v", ErrPersistence, err)
	}

	s.logger.InfoContext(ctx, "Bot user created", "user_id", user.ID, "telegram_id", telegramID)
	return user, nil
}

func (s *sqlxStore) getUserWhere(ctx context.Context, where string, args ...any) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE `+where+` ORDER BY id LIMIT 1;`, args...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "where", where, "error", err)
		return nil, fmt.Errorf("%w: failed to get user: %v", ErrPersistence, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by internal ID. Returns nil, nil if not found.
func (s *sqlxStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByTelegramID retrieves a user by telegram ID. Returns nil, nil if not found.
func (s *sqlxStore) GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return s.getUserWhere(ctx, "telegram_id = ?", telegramID)
}

// GetUserByUsername retrieves a user by telegram username. Usernames are not
// unique; the earliest registration wins. Returns nil, nil if not found.
func (s *sqlxStore) GetUserByUsername(ctx context.Context, telegramUsername string) (*User, error) {
	return s.getUserWhere(ctx, "telegram_username = ?", telegramUsername)
}

// GetBotUser retrieves the bot-role user, ErrNotFound if missing.
func (s *sqlxStore) GetBotUser(ctx context.Context) (*User, error) {
	user, err := s.getUserWhere(ctx, "role = ?", UserRoleBot)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: bot user", ErrNotFound)
	}
	return user, nil
}

// ListUsers loads all users and filters them with the query engine. The
// domain mini-language is evaluated in memory over the listing capability,
// so validation errors surface as query.ErrValidation, never as an empty
// result.
func (s *sqlxStore) ListUsers(ctx context.Context, domain query.Domain, opts query.Options) ([]User, error) {
	var users []User
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id;`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing users", "error", err)
		return nil, fmt.Errorf("%w: failed to list users: %v", ErrPersistence, err)
	}

	matched, err := query.Search(users, domain, UserFields, opts)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Listed users", "total", len(users), "matched", len(matched))
	return matched, nil
}

// SetUserState overwrites the user's state. No transition table is applied;
// the admin workflow is responsible for sane transitions.
func (s *sqlxStore) SetUserState(ctx context.Context, userID int64, state string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET state = ?, updated_at = ? WHERE id = ?;`,
		state, time.Now().UTC(), userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating user state", "user_id", userID, "state", state, "error", err)
		return fmt.Errorf("%w: failed to update user state: %v", ErrPersistence, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %v", ErrPersistence, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}

	s.logger.InfoContext(ctx, "User state updated", "user_id", userID, "state", state)
	return nil
}

const privateGroupQuery = `
    SELECT g.id, g.created_at, g.updated_at, g.telegram_id, g.type, g.title, g.telegram_username
    FROM groups g
    JOIN user_group_rels r ON r.group_id = g.id
    WHERE r.user_id = ? AND g.type = ?
    ORDER BY g.id
    LIMIT 1;
`

// GetPrivateGroup retrieves the private group containing the user.
func (s *sqlxStore) GetPrivateGroup(ctx context.Context, userID int64) (*Group, error) {
	var group Group
	err := s.db.GetContext(ctx, &group, privateGroupQuery, userID, GroupTypePrivate)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: private group for user %d", ErrNotFound, userID)
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting private group", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: failed to get private group: %v", ErrPersistence, err)
	}
	return &group, nil
}

func (s *sqlxStore) getGroupWhere(ctx context.Context, where string, args ...any) (*Group, error) {
	var group Group
	err := s.db.GetContext(ctx, &group,
		`SELECT `+groupColumns+` FROM groups WHERE `+where+` ORDER BY id LIMIT 1;`, args...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting group", "where", where, "error", err)
		return nil, fmt.Errorf("%w: failed to get group: %v", ErrPersistence, err)
	}
	return &group, nil
}

// GetGroupByID retrieves a group by internal ID. Returns nil, nil if not found.
func (s *sqlxStore) GetGroupByID(ctx context.Context, id int64) (*Group, error) {
	return s.getGroupWhere(ctx, "id = ?", id)
}

// GetGroupByTelegramID retrieves a group by telegram chat ID. Returns nil, nil if not found.
func (s *sqlxStore) GetGroupByTelegramID(ctx context.Context, telegramID string) (*Group, error) {
	return s.getGroupWhere(ctx, "telegram_id = ?", telegramID)
}

// PostMessage inserts the message and appends it to the target group's
// active context in one transaction. The explicit group argument wins over
// the author's private group, so the bot can post into a context
// established by a different author.
func (s *sqlxStore) PostMessage(ctx context.Context, authorID int64, groupID int64, text string) (*Message, error) {
	if authorID == 0 {
		return nil, fmt.Errorf("author id cannot be zero")
	}
	if text == "" {
		return nil, fmt.Errorf("message must have non-empty content")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for posting message", "author_id", authorID, "error", err)
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", ErrPersistence, err)
	}
	defer s.rollbackOnFailure(ctx, &tx)

	if groupID == 0 {
		var group Group
		err = tx.GetContext(ctx, &group, privateGroupQuery, authorID, GroupTypePrivate)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: private group for user %d", ErrNotFound, authorID)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to resolve private group: %v", ErrPersistence, err)
		}
		groupID = group.ID
	}

	now := time.Now().UTC()
	message := &Message{
		CreatedAt: now,
		UpdatedAt: now,
		GroupID:   groupID,
		UserID:    authorID,
		Content:   text,
		Timestamp: now,
	}
	result, err := tx.NamedExecContext(ctx, `
        INSERT INTO messages (created_at, updated_at, group_id, user_id, content, timestamp)
        VALUES (:created_at, :updated_at, :group_id, :user_id, :content, :timestamp);
    `, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting message", "group_id", groupID, "author_id", authorID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert message: %v", ErrPersistence, err)
	}
	if message.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("%w: failed to get message id: %v", ErrPersistence, err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO group_context_messages (group_id, message_id, added_at) VALUES (?, ?, ?);`,
		groupID, message.ID, now); err != nil {
		s.logger.ErrorContext(ctx, "Error appending message to context", "group_id", groupID, "message_id", message.ID, "error", err)
		return nil, fmt.Errorf("%w: failed to append message to context: %v", ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit message post", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("%w: failed to commit transaction: %v", ErrPersistence, err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Message posted", "message_id", message.ID, "group_id", groupID, "author_id", authorID)
	return message, nil
}

// ResetContext detaches all context members of the group. A single DELETE
// is atomic, and an already-empty context deletes zero rows without error.
func (s *sqlxStore) ResetContext(ctx context.Context, groupID int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM group_context_messages WHERE group_id = ?;`, groupID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error resetting context", "group_id", groupID, "error", err)
		return fmt.Errorf("%w: failed to reset context: %v", ErrPersistence, err)
	}

	detached, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Context reset", "group_id", groupID, "detached", detached)
	return nil
}

// FormatContext returns the conversation to replay to the LLM: the persona
// as a system entry, then each active-context message in post order with
// the author's role mapped to assistant for the bot user.
func (s *sqlxStore) FormatContext(ctx context.Context, groupID int64, persona string) ([]ChatEntry, error) {
	var rows []struct {
		Content string `db:"content"`
		Role    string `db:"role"`
	}
	err := s.db.SelectContext(ctx, &rows, `
        SELECT m.content AS content, u.role AS role
        FROM group_context_messages c
        JOIN messages m ON m.id = c.message_id
        JOIN users u ON u.id = m.user_id
        WHERE c.group_id = ?
        ORDER BY m.timestamp ASC, m.id ASC;
    `, groupID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error loading context", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("%w: failed to load context: %v", ErrPersistence, err)
	}

	entries := make([]ChatEntry, 0, len(rows)+1)
	entries = append(entries, ChatEntry{Role: ChatRoleSystem, Content: persona})
	for _, row := range rows {
		role := ChatRoleUser
		if row.Role == UserRoleBot {
			role = ChatRoleAssistant
		}
		entries = append(entries, ChatEntry{Role: role, Content: row.Content})
	}
	return entries, nil
}

// GroupHistory retrieves the most recent 'limit' messages for the group.
func (s *sqlxStore) GroupHistory(ctx context.Context, groupID int64, limit int) ([]Message, error) {
	if groupID == 0 {
		return nil, fmt.Errorf("group_id cannot be zero")
	}
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	var messages []Message
	err := s.db.SelectContext(ctx, &messages, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE group_id = ?
        ORDER BY timestamp DESC, id DESC
        LIMIT ?;
    `, groupID, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting group history", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("%w: failed to get group history: %v", ErrPersistence, err)
	}
	return messages, nil
}

// DeleteMessage removes the message and its context membership together.
func (s *sqlxStore) DeleteMessage(ctx context.Context, messageID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ErrPersistence, err)
	}
	defer s.rollbackOnFailure(ctx, &tx)

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_context_messages WHERE message_id = ?;`, messageID); err != nil {
		return fmt.Errorf("%w: failed to detach message: %v", ErrPersistence, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = ?;`, messageID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete message: %v", ErrPersistence, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %v", ErrPersistence, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrPersistence, err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Message deleted", "message_id", messageID)
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
// VACUUM must run outside a transaction in SQLite.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("%w: failed to execute VACUUM: %v", ErrPersistence, err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
