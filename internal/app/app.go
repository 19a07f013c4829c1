package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Treosha1991/jobapp-backend-2026/internal/config"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	Server *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server) *App {
	return &App{Config: cfg, Logger: logger, Server: server}
}

// Start blocks serving HTTP until the listener fails or Shutdown runs.
func (a *App) Start() error {
	a.Logger.Info("server starting", "addr", a.Server.Addr, "env", a.Config.Env)
	return a.Server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("server shutting down")
	return a.Server.Shutdown(ctx)
}
