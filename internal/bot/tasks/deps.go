// Package tasks implements scheduled background tasks for the bot,
// including task definitions, dependencies, and registration.
package tasks

import (
	"log/slog"

	"github.com/mkuznets/gatebot/internal/config"
	"github.com/mkuznets/gatebot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
