// Package handlers holds the thin dashboard API handlers. The pipeline does
// the real work; everything here is I/O shaping.
package handlers

import (
	"log/slog"

	"github.com/glitchbyte/streambot/internal/bot"
	"github.com/glitchbyte/streambot/internal/chat"
	"github.com/glitchbyte/streambot/internal/config"
	"github.com/glitchbyte/streambot/internal/routing"
)

type Handler struct {
	Cfg      config.Config
	Repo     *chat.Repo
	Ledger   *chat.Ledger
	Registry *routing.Registry
	Pipeline *bot.Pipeline
	Logger   *slog.Logger
}

func NewHandler(cfg config.Config, repo *chat.Repo, ledger *chat.Ledger, registry *routing.Registry, pipeline *bot.Pipeline, logger *slog.Logger) *Handler {
	return &Handler{
		Cfg:      cfg,
		Repo:     repo,
		Ledger:   ledger,
		Registry: registry,
		Pipeline: pipeline,
		Logger:   logger,
	}
}
