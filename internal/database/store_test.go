package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mkuznets/gatebot/internal/database"
	"github.com/mkuznets/gatebot/internal/query"
)

const (
	testBotTelegramID   = 1
	testBotUsername     = "gatebot"
	testPersona         = "The assistant is helpful, creative, smart and very friendly."
	testAliceTelegramID = 42
)

// newTestStore opens a fresh in-memory database with the real migrations
// applied. The connection pool is capped at one connection, so the
// in-memory database survives for the lifetime of the pool.
func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB() failed: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

// newPopulatedStore returns a store with the bot user bootstrapped and
// alice registered, mirroring the startup + /start flow.
func newPopulatedStore(t *testing.T) (database.Store, *database.User, *database.User) {
	t.Helper()

	store := newTestStore(t)
	ctx := context.Background()

	bot, err := store.EnsureBotUser(ctx, testBotTelegramID, testBotUsername)
	if err != nil {
		t.Fatalf("EnsureBotUser() failed: %v", err)
	}
	alice, err := store.CreateUser(ctx, testAliceTelegramID, "alice")
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return store, bot, alice
}

func TestCreateUser(t *testing.T) {
	t.Parallel()

	t.Run("creates private group with exactly user and bot", func(t *testing.T) {
		t.Parallel()
		store, bot, alice := newPopulatedStore(t)
		ctx := context.Background()

		if alice.State != database.UserStateInactive {
			t.Errorf("new user state = %q, want %q", alice.State, database.UserStateInactive)
		}
		if alice.Role != database.UserRoleUser {
			t.Errorf("new user role = %q, want %q", alice.Role, database.UserRoleUser)
		}

		group, err := store.GetPrivateGroup(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetPrivateGroup() failed: %v", err)
		}
		if group.Type != database.GroupTypePrivate {
			t.Errorf("group type = %q, want %q", group.Type, database.GroupTypePrivate)
		}

		// The bot must share the same private group.
		botGroup, err := store.GetPrivateGroup(ctx, bot.ID)
		if err != nil {
			t.Fatalf("GetPrivateGroup(bot) failed: %v", err)
		}
		if botGroup.ID != group.ID {
			t.Errorf("bot private group = %d, want %d", botGroup.ID, group.ID)
		}
	})

	t.Run("duplicate telegram id conflicts", func(t *testing.T) {
		t.Parallel()
		store, _, _ := newPopulatedStore(t)

		_, err := store.CreateUser(context.Background(), testAliceTelegramID, "alice-again")
		if !errors.Is(err, database.ErrConflict) {
			t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
		}
	})

	t.Run("missing bot user rolls back everything", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		ctx := context.Background()

		// No bot user bootstrapped: the final membership step cannot
		// succeed, and none of the earlier writes may survive.
		_, err := store.CreateUser(ctx, testAliceTelegramID, "alice")
		if !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("CreateUser() error = %v, want ErrNotFound", err)
		}

		user, err := store.GetUserByTelegramID(ctx, testAliceTelegramID)
		if err != nil {
			t.Fatalf("GetUserByTelegramID() failed: %v", err)
		}
		if user != nil {
			t.Errorf("user persisted after failed creation: %+v", user)
		}

		users, err := store.ListUsers(ctx, query.Domain{}, query.Options{})
		if err != nil {
			t.Fatalf("ListUsers() failed: %v", err)
		}
		if len(users) != 0 {
			t.Errorf("users table not empty after rollback: %+v", users)
		}
	})
}

func TestUserLookups(t *testing.T) {
	t.Parallel()
	store, bot, alice := newPopulatedStore(t)
	ctx := context.Background()

	t.Run("by telegram id", func(t *testing.T) {
		got, err := store.GetUserByTelegramID(ctx, testAliceTelegramID)
		if err != nil {
			t.Fatalf("GetUserByTelegramID() failed: %v", err)
		}
		if got == nil || got.ID != alice.ID {
			t.Errorf("GetUserByTelegramID() = %+v, want id %d", got, alice.ID)
		}
	})

	t.Run("by username", func(t *testing.T) {
		got, err := store.GetUserByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("GetUserByUsername() failed: %v", err)
		}
		if got == nil || got.ID != alice.ID {
			t.Errorf("GetUserByUsername() = %+v, want id %d", got, alice.ID)
		}
	})

	t.Run("miss is nil not error", func(t *testing.T) {
		got, err := store.GetUserByTelegramID(ctx, 99999)
		if err != nil {
			t.Fatalf("GetUserByTelegramID() failed: %v", err)
		}
		if got != nil {
			t.Errorf("GetUserByTelegramID() = %+v, want nil", got)
		}
	})

	t.Run("bot user", func(t *testing.T) {
		got, err := store.GetBotUser(ctx)
		if err != nil {
			t.Fatalf("GetBotUser() failed: %v", err)
		}
		if got.ID != bot.ID {
			t.Errorf("GetBotUser() = %+v, want id %d", got, bot.ID)
		}
	})

	t.Run("missing bot user is an error", func(t *testing.T) {
		empty := newTestStore(t)
		_, err := empty.GetBotUser(ctx)
		if !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("GetBotUser() error = %v, want ErrNotFound", err)
		}
	})
}

func TestListUsersWithDomain(t *testing.T) {
	t.Parallel()
	store, _, alice := newPopulatedStore(t)
	ctx := context.Background()

	bob, err := store.CreateUser(ctx, 43, "bob")
	if err != nil {
		t.Fatalf("CreateUser(bob) failed: %v", err)
	}
	if err := store.SetUserState(ctx, alice.ID, database.UserStateActive); err != nil {
		t.Fatalf("SetUserState(alice) failed: %v", err)
	}
	if err := store.SetUserState(ctx, bob.ID, database.UserStateBanned); err != nil {
		t.Fatalf("SetUserState(bob) failed: %v", err)
	}

	activeNonBots := query.Domain{
		query.OpAnd,
		query.Condition{Field: "state", Op: "=", Value: database.UserStateActive},
		query.Condition{Field: "role", Op: "!=", Value: database.UserRoleBot},
	}
	users, err := store.ListUsers(ctx, activeNonBots, query.Options{Order: "telegram_username asc"})
	if err != nil {
		t.Fatalf("ListUsers() failed: %v", err)
	}
	if len(users) != 1 || users[0].ID != alice.ID {
		t.Errorf("ListUsers() = %+v, want just alice", users)
	}

	_, err = store.ListUsers(ctx, query.Domain{query.OpNot}, query.Options{})
	if !errors.Is(err, query.ErrValidation) {
		t.Fatalf("ListUsers() with bad domain error = %v, want ErrValidation", err)
	}
}

func TestSetUserState(t *testing.T) {
	t.Parallel()
	store, _, alice := newPopulatedStore(t)
	ctx := context.Background()

	if err := store.SetUserState(ctx, alice.ID, database.UserStateActive); err != nil {
		t.Fatalf("SetUserState() failed: %v", err)
	}
	got, err := store.GetUserByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if got.State != database.UserStateActive {
		t.Errorf("state = %q, want %q", got.State, database.UserStateActive)
	}

	// Overwrite is unconditional: banned directly from active.
	if err := store.SetUserState(ctx, alice.ID, database.UserStateBanned); err != nil {
		t.Fatalf("SetUserState() failed: %v", err)
	}

	if err := store.SetUserState(ctx, 99999, database.UserStateActive); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("SetUserState(missing) error = %v, want ErrNotFound", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	store, bot, alice := newPopulatedStore(t)
	ctx := context.Background()

	group, err := store.GetPrivateGroup(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetPrivateGroup() failed: %v", err)
	}

	// Two user turns and one bot reply; the bot posts into alice's group
	// explicitly, the users post to their default private group.
	if _, err := store.PostMessage(ctx, alice.ID, 0, "hello"); err != nil {
		t.Fatalf("PostMessage(1) failed: %v", err)
	}
	if _, err := store.PostMessage(ctx, bot.ID, group.ID, "hi alice"); err != nil {
		t.Fatalf("PostMessage(2) failed: %v", err)
	}
	if _, err := store.PostMessage(ctx, alice.ID, 0, "how are you?"); err != nil {
		t.Fatalf("PostMessage(3) failed: %v", err)
	}

	entries, err := store.FormatContext(ctx, group.ID, testPersona)
	if err != nil {
		t.Fatalf("FormatContext() failed: %v", err)
	}
	want := []database.ChatEntry{
		{Role: database.ChatRoleSystem, Content: testPersona},
		{Role: database.ChatRoleUser, Content: "hello"},
		{Role: database.ChatRoleAssistant, Content: "hi alice"},
		{Role: database.ChatRoleUser, Content: "how are you?"},
	}
	if len(entries) != len(want) {
		t.Fatalf("FormatContext() returned %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}

	if err := store.ResetContext(ctx, group.ID); err != nil {
		t.Fatalf("ResetContext() failed: %v", err)
	}

	entries, err = store.FormatContext(ctx, group.ID, testPersona)
	if err != nil {
		t.Fatalf("FormatContext() after reset failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Role != database.ChatRoleSystem {
		t.Errorf("FormatContext() after reset = %+v, want system entry only", entries)
	}

	// Reset detaches, it never deletes: full history survives.
	history, err := store.GroupHistory(ctx, group.ID, 10)
	if err != nil {
		t.Fatalf("GroupHistory() failed: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("GroupHistory() returned %d messages after reset, want 3", len(history))
	}

	// Resetting an already-empty context is a no-op, not an error.
	if err := store.ResetContext(ctx, group.ID); err != nil {
		t.Fatalf("second ResetContext() failed: %v", err)
	}
	entries, err = store.FormatContext(ctx, group.ID, testPersona)
	if err != nil {
		t.Fatalf("FormatContext() after second reset failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("FormatContext() after second reset = %+v, want system entry only", entries)
	}
}

func TestPostMessage(t *testing.T) {
	t.Parallel()

	t.Run("missing private group is structural", func(t *testing.T) {
		t.Parallel()
		store, _, _ := newPopulatedStore(t)

		_, err := store.PostMessage(context.Background(), 99999, 0, "hello")
		if !errors.Is(err, database.ErrNotFound) {
			t.Errorf("PostMessage() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("explicit group wins over private group", func(t *testing.T) {
		t.Parallel()
		store, _, alice := newPopulatedStore(t)
		ctx := context.Background()

		bob, err := store.CreateUser(ctx, 43, "bob")
		if err != nil {
			t.Fatalf("CreateUser(bob) failed: %v", err)
		}
		aliceGroup, err := store.GetPrivateGroup(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetPrivateGroup(alice) failed: %v", err)
		}
		bobGroup, err := store.GetPrivateGroup(ctx, bob.ID)
		if err != nil {
			t.Fatalf("GetPrivateGroup(bob) failed: %v", err)
		}

		msg, err := store.PostMessage(ctx, bob.ID, aliceGroup.ID, "crossposted")
		if err != nil {
			t.Fatalf("PostMessage() failed: %v", err)
		}
		if msg.GroupID != aliceGroup.ID {
			t.Errorf("message group = %d, want %d", msg.GroupID, aliceGroup.ID)
		}

		entries, err := store.FormatContext(ctx, aliceGroup.ID, testPersona)
		if err != nil {
			t.Fatalf("FormatContext(alice) failed: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("alice context has %d entries, want 2", len(entries))
		}
		entries, err = store.FormatContext(ctx, bobGroup.ID, testPersona)
		if err != nil {
			t.Fatalf("FormatContext(bob) failed: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("bob context has %d entries, want 1 (system only)", len(entries))
		}
	})
}

func TestDeleteMessage(t *testing.T) {
	t.Parallel()
	store, _, alice := newPopulatedStore(t)
	ctx := context.Background()

	group, err := store.GetPrivateGroup(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetPrivateGroup() failed: %v", err)
	}
	msg, err := store.PostMessage(ctx, alice.ID, 0, "oops")
	if err != nil {
		t.Fatalf("PostMessage() failed: %v", err)
	}

	if err := store.DeleteMessage(ctx, msg.ID); err != nil {
		t.Fatalf("DeleteMessage() failed: %v", err)
	}

	history, err := store.GroupHistory(ctx, group.ID, 10)
	if err != nil {
		t.Fatalf("GroupHistory() failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("GroupHistory() = %+v, want empty", history)
	}

	if err := store.DeleteMessage(ctx, msg.ID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("DeleteMessage(again) error = %v, want ErrNotFound", err)
	}
}

func TestEnsureBotUserIsIdempotent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.EnsureBotUser(ctx, testBotTelegramID, testBotUsername)
	if err != nil {
		t.Fatalf("EnsureBotUser() failed: %v", err)
	}
	second, err := store.EnsureBotUser(ctx, testBotTelegramID, testBotUsername)
	if err != nil {
		t.Fatalf("second EnsureBotUser() failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("EnsureBotUser() created a second bot user: %d then %d", first.ID, second.ID)
	}
}
