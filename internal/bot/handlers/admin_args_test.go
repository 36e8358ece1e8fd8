package handlers_test

import (
	"testing"

	"github.com/mkuznets/gatebot/internal/bot/handlers"
)

func TestSplitCommand(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		text        string
		wantCommand string
		wantArgs    string
	}{
		{"bare command", "/start", "/start", ""},
		{"command with bot suffix", "/start@gatebot", "/start", ""},
		{"command with args", "/approve 42", "/approve", "42"},
		{"command with suffix and args", "/sendto@gatebot @alice hello there", "/sendto", "@alice hello there"},
		{"surrounding whitespace", "  /help  ", "/help", ""},
		{"plain text", "hello world", "", "hello world"},
		{"empty", "", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			command, args := handlers.SplitCommand(tc.text)
			if command != tc.wantCommand || args != tc.wantArgs {
				t.Errorf("SplitCommand(%q) = (%q, %q), want (%q, %q)",
					tc.text, command, args, tc.wantCommand, tc.wantArgs)
			}
		})
	}
}

func TestParseRecipient(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		arg     string
		want    handlers.Recipient
		wantErr bool
	}{
		{"numeric ID", "42", handlers.Recipient{TelegramID: 42}, false},
		{"username with at", "@alice", handlers.Recipient{Username: "alice"}, false},
		{"username without at", "alice", handlers.Recipient{Username: "alice"}, false},
		{"whitespace trimmed", "  @bob  ", handlers.Recipient{Username: "bob"}, false},
		{"empty", "", handlers.Recipient{}, true},
		{"bare at sign", "@", handlers.Recipient{}, true},
		{"zero ID", "0", handlers.Recipient{}, true},
		{"negative ID", "-5", handlers.Recipient{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := handlers.ParseRecipient(tc.arg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseRecipient(%q) expected error, got %+v", tc.arg, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRecipient(%q) unexpected error: %v", tc.arg, err)
			}
			if got != tc.want {
				t.Errorf("ParseRecipient(%q) = %+v, want %+v", tc.arg, got, tc.want)
			}
		})
	}
}

func TestSplitRecipientArgs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		args          string
		wantRecipient handlers.Recipient
		wantText      string
		wantErr       bool
	}{
		{"ID and text", "42 hello there", handlers.Recipient{TelegramID: 42}, "hello there", false},
		{"username and text", "@alice how are you?", handlers.Recipient{Username: "alice"}, "how are you?", false},
		{"missing text", "42", handlers.Recipient{}, "", true},
		{"missing everything", "", handlers.Recipient{}, "", true},
		{"only whitespace after ref", "42   ", handlers.Recipient{}, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			recipient, text, err := handlers.SplitRecipientArgs(tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("SplitRecipientArgs(%q) expected error, got (%+v, %q)", tc.args, recipient, text)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitRecipientArgs(%q) unexpected error: %v", tc.args, err)
			}
			if recipient != tc.wantRecipient || text != tc.wantText {
				t.Errorf("SplitRecipientArgs(%q) = (%+v, %q), want (%+v, %q)",
					tc.args, recipient, text, tc.wantRecipient, tc.wantText)
			}
		})
	}
}
