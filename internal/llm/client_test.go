package llm

import (
	"testing"

	"google.golang.org/genai"

	"github.com/mkuznets/gatebot/internal/database"
)

func TestBuildRequest(t *testing.T) {
	t.Parallel()

	conversation := []database.ChatEntry{
		{Role: database.ChatRoleSystem, Content: "You are a friendly assistant."},
		{Role: database.ChatRoleUser, Content: "Hello"},
		{Role: database.ChatRoleAssistant, Content: "Hi there!"},
		{Role: database.ChatRoleUser, Content: "How are you?"},
	}

	systemInstruction, contents := buildRequest(conversation)

	if systemInstruction != "You are a friendly assistant." {
		t.Errorf("unexpected system instruction: %q", systemInstruction)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}

	wantRoles := []genai.Role{genai.RoleUser, genai.RoleModel, genai.RoleUser}
	wantTexts := []string{"Hello", "Hi there!", "How are you?"}
	for i, content := range contents {
		if genai.Role(content.Role) != wantRoles[i] {
			t.Errorf("content %d: expected role %q, got %q", i, wantRoles[i], content.Role)
		}
		if len(content.Parts) != 1 || content.Parts[0].Text != wantTexts[i] {
			t.Errorf("content %d: expected text %q, got %+v", i, wantTexts[i], content.Parts)
		}
	}
}

func TestBuildRequestWithoutSystemEntry(t *testing.T) {
	t.Parallel()

	systemInstruction, contents := buildRequest([]database.ChatEntry{
		{Role: database.ChatRoleUser, Content: "Hello"},
	})

	if systemInstruction != "" {
		t.Errorf("expected empty system instruction, got %q", systemInstruction)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
}

func TestBuildRequestEmptyConversation(t *testing.T) {
	t.Parallel()

	systemInstruction, contents := buildRequest(nil)
	if systemInstruction != "" || contents != nil {
		t.Errorf("expected empty request, got %q / %+v", systemInstruction, contents)
	}
}
