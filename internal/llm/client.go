// Package llm implements the conversational AI backend using Google's
// Gemini API. It turns a stored conversation into a model request and
// always produces a user-facing reply, falling back to a configured
// message when the API fails.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/mkuznets/gatebot/internal/config"
	"github.com/mkuznets/gatebot/internal/database"
)

// Client defines the interface for AI completions. Complete never returns
// an error: failures are logged and the configured fallback message is
// returned instead, so callers can always relay the result to the user.
type Client interface {
	Complete(ctx context.Context, conversation []database.ChatEntry) string
}

type sdkClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	baseConfig  *genai.GenerateContentConfig
	modelName   string
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	fallback    string
}

// NewClient creates a new Gemini-backed completion client with the provided
// configuration.
func NewClient(ctx context.Context, cfg *config.Config, log *slog.Logger) (Client, error) {
	if cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("AI API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.AIAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.AITemperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,

		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}

	logger := log.With("component", "llm_client")
	logger.Info("LLM client initialized successfully", "model", cfg.AIModel)
	return &sdkClient{
		genaiClient: gi,
		log:         logger,
		baseConfig:  baseCfg,
		modelName:   cfg.AIModel,
		timeout:     cfg.AITimeout,
		maxRetries:  cfg.AIMaxRetries,
		retryDelay:  cfg.AIRetryDelay,
		fallback:    cfg.AIFallbackMessage,
	}, nil
}

// Complete sends the conversation to the model and returns its reply. The
// first system entry becomes the system instruction, assistant entries map
// to the model role, everything else to the user role.
func (c *sdkClient) Complete(ctx context.Context, conversation []database.ChatEntry) string {
	c.log.DebugContext(ctx, "Generating completion", "entry_count", len(conversation))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	systemInstruction, contents := buildRequest(conversation)
	if len(contents) == 0 {
		c.log.WarnContext(ctx, "Conversation has no user or assistant entries, returning fallback")
		return c.fallback
	}

	requestCfg := *c.baseConfig
	if systemInstruction != "" {
		requestCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}}
	}

	resp, err := c.generateContentWithRetries(ctx, contents, &requestCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "LLM completion failed, returning fallback message", "error", err)
		return c.fallback
	}

	text, err := c.extractTextFromResponse(ctx, resp)
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to extract text from LLM response, returning fallback message", "error", err)
		return c.fallback
	}
	return text
}

// buildRequest splits a stored conversation into the system instruction and
// the content list for the model request.
func buildRequest(conversation []database.ChatEntry) (string, []*genai.Content) {
	var systemInstruction string
	var contents []*genai.Content

	for _, entry := range conversation {
		switch entry.Role {
		case database.ChatRoleSystem:
			if systemInstruction == "" {
				systemInstruction = entry.Content
			}
		case database.ChatRoleAssistant:
			contents = append(contents, genai.NewContentFromText(entry.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(entry.Content, genai.RoleUser))
		}
	}
	return systemInstruction, contents
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "LLM API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying LLM API call due to retriable APIError", "delay", c.retryDelay, "code", apiErr.Code)
				time.Sleep(c.retryDelay)
				continue
			}
			return nil, fmt.Errorf("LLM API call failed after %d retries (APIError code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("LLM API call failed: %w", err)
	}
	return nil, err
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "LLM request blocked by safety filter", "reason", reasonMsg)
		return "", fmt.Errorf("request blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "LLM response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("model returned no content, finish reason: %s", finishReason)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model returned empty text")
	}
	return text, nil
}
