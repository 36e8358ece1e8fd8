// Package config provides configuration loading, validation, and management
// for the GateBot application. It reads a YAML file plus BOT_* environment
// variables, fills defaults for every optional field, and validates the
// result.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// TaskSchedule configures one scheduled task.
type TaskSchedule struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Config defines the application configuration parameters for all components
// of the GateBot system: logging, the two Telegram bots, the LLM client, the
// database and the scheduler. Values can be set via config.yaml or through
// environment variables prefixed with BOT_ (e.g. BOT_AI_API_KEY).
type Config struct {
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogJSON  bool   `mapstructure:"log_json"`

	BotToken      string `mapstructure:"bot_token"       validate:"required"`
	AdminBotToken string `mapstructure:"admin_bot_token" validate:"required"`
	AdminUserID   int64  `mapstructure:"admin_user_id"   validate:"required,gt=0"`

	// Identity of the assistant's bot-role user in the conversation store.
	BotTelegramID int64  `mapstructure:"bot_telegram_id" validate:"required,gt=0"`
	BotUsername   string `mapstructure:"bot_username"`

	AIAPIKey          string        `mapstructure:"ai_api_key" validate:"required"`
	AIModel           string        `mapstructure:"ai_model"   validate:"required"`
	AITemperature     float32       `mapstructure:"ai_temperature" validate:"min=0,max=2"`
	AIPersona         string        `mapstructure:"ai_persona" validate:"required"`
	AIFallbackMessage string        `mapstructure:"ai_fallback_message" validate:"required"`
	AITimeout         time.Duration `mapstructure:"ai_timeout" validate:"min=1s,max=10m"`
	AIMaxRetries      int           `mapstructure:"ai_max_retries" validate:"min=0,max=10"`
	AIRetryDelay      time.Duration `mapstructure:"ai_retry_delay" validate:"min=0"`

	DBPath string `mapstructure:"db_path"`

	BotMsgWelcomeNew     string `mapstructure:"bot_msg_welcome_new"`
	BotMsgWelcomePending string `mapstructure:"bot_msg_welcome_pending"`
	BotMsgWelcomeActive  string `mapstructure:"bot_msg_welcome_active"`
	BotMsgWelcomeBanned  string `mapstructure:"bot_msg_welcome_banned"`
	BotMsgHelp           string `mapstructure:"bot_msg_help"`
	BotMsgAccessUnknown  string `mapstructure:"bot_msg_access_unknown"`
	BotMsgAccessPending  string `mapstructure:"bot_msg_access_pending"`
	BotMsgAccessBanned   string `mapstructure:"bot_msg_access_banned"`
	BotMsgNotAuthorized  string `mapstructure:"bot_msg_not_authorized"`
	BotMsgGeneralError   string `mapstructure:"bot_msg_general_error"`
	BotMsgResetPrompt    string `mapstructure:"bot_msg_reset_prompt"`
	BotMsgResetYes       string `mapstructure:"bot_msg_reset_yes"`
	BotMsgResetNo        string `mapstructure:"bot_msg_reset_no"`
	BotMsgResetDone      string `mapstructure:"bot_msg_reset_done"`
	BotMsgResetCancelled string `mapstructure:"bot_msg_reset_cancelled"`
	BotMsgApproved       string `mapstructure:"bot_msg_approved"`
	BotMsgRejected       string `mapstructure:"bot_msg_rejected"`
	BotMsgUnknownCommand string `mapstructure:"bot_msg_unknown_command"`

	SchedulerTasks map[string]TaskSchedule `mapstructure:"scheduler_tasks"`
}

// LoadConfig reads the configuration from the given YAML file (missing file
// is fine, defaults apply), overlays BOT_* environment variables, and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		slog.Info("Configuration file not found, using defaults and environment", "path", path)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	slog.Debug("Configuration loaded",
		"log_level", config.LogLevel,
		"ai_model", config.AIModel,
		"db_path", config.DBPath)
	return config, nil
}

func isNotExist(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", true)

	v.SetDefault("bot_telegram_id", 1)
	v.SetDefault("bot_username", "gatebot")

	v.SetDefault("ai_model", "gemini-2.0-flash")
	v.SetDefault("ai_temperature", 0.8)
	v.SetDefault("ai_persona", "The assistant is helpful, creative, smart and very friendly.")
	v.SetDefault("ai_fallback_message", "Sorry, I'm having some trouble right now. Please try again later.")
	v.SetDefault("ai_timeout", "2m")
	v.SetDefault("ai_max_retries", 2)
	v.SetDefault("ai_retry_delay", "5s")

	v.SetDefault("db_path", "storage.db")

	v.SetDefault("bot_msg_welcome_new", "Your registration request has been sent to the administrator. You will be notified once it is approved.")
	v.SetDefault("bot_msg_welcome_pending", "Your registration is still waiting for approval.")
	v.SetDefault("bot_msg_welcome_active", "Welcome back! Send me a message to continue our conversation.")
	v.SetDefault("bot_msg_welcome_banned", "Your account has been blocked.")
	v.SetDefault("bot_msg_help", "Send me any message and I will answer. Use /reset_context to start the conversation over.")
	v.SetDefault("bot_msg_access_unknown", "You are not registered yet. Use /start to request access.")
	v.SetDefault("bot_msg_access_pending", "Your registration has not been approved yet.")
	v.SetDefault("bot_msg_access_banned", "Your account has been blocked.")
	v.SetDefault("bot_msg_not_authorized", "You are not authorized to use this command.")
	v.SetDefault("bot_msg_general_error", "An error occurred. Please try again later.")
	v.SetDefault("bot_msg_reset_prompt", "Reset the conversation context?")
	v.SetDefault("bot_msg_reset_yes", "Yes, reset")
	v.SetDefault("bot_msg_reset_no", "No, keep it")
	v.SetDefault("bot_msg_reset_done", "The conversation context has been reset.")
	v.SetDefault("bot_msg_reset_cancelled", "Reset cancelled.")
	v.SetDefault("bot_msg_approved", "Congratulations, your account has been activated!")
	v.SetDefault("bot_msg_rejected", "Your account has been blocked.")
	v.SetDefault("bot_msg_unknown_command", "Unknown command. Use /help to see what I can do.")

	v.SetDefault("scheduler_tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler_tasks.sql_maintenance.schedule", "0 4 * * *")
}
