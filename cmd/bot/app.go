package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"guild-leveling-bot/internal/adapters/discord"
	"guild-leveling-bot/internal/adapters/storage/jsonfile"
	"guild-leveling-bot/internal/adapters/storage/postgres"
	"guild-leveling-bot/internal/card"
	"guild-leveling-bot/internal/config"
	"guild-leveling-bot/internal/core/ports"
	"guild-leveling-bot/internal/core/services/leveling"
	"guild-leveling-bot/internal/handlers"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type App struct {
	config  *config.Config
	store   ports.Repository
	discord *discordgo.Session
	engine  *leveling.Engine
	router  *handlers.Router

	autosaveCancel context.CancelFunc
	autosaveDone   chan struct{}
	metricsServer  *http.Server

	registeredCommands []*discordgo.ApplicationCommand
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := newStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		return nil, err
	}

	session, err := discord.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	adapter := discord.NewAdapter(session, session.State)

	engine := leveling.NewEngine(leveling.Dependencies{
		Config: cfg,
		Store:  store,
		Guild:  adapter,
	})
	if err := engine.Load(ctx); err != nil {
		slog.Error("Failed to load leveling state", "error", err)
		return nil, err
	}

	botHandlers := &handlers.BotHandler{
		Config: cfg,
		Engine: engine,
		Cards:  card.NewRenderer(cfg.FontsDir),
		Notify: adapter,
	}

	router := handlers.NewRouter()
	router.Register("level", handlers.WithGuild(botHandlers.Level))
	router.Register("level-admin", handlers.WithGuild(handlers.WithAdmin(botHandlers.Admin)))
	router.Register("level-role", handlers.WithGuild(botHandlers.Role))
	router.Register("level-settings", handlers.WithGuild(handlers.WithAdmin(botHandlers.Settings)))
	router.Register("level-card", handlers.WithGuild(botHandlers.Card))
	router.Register("level-advanced", handlers.WithGuild(handlers.WithAdmin(botHandlers.Advanced)))

	session.AddHandler(handlers.ReadyHandler)
	session.AddHandler(router.HandleFunc())
	session.AddHandler(botHandlers.MessageCreateHandler())

	return &App{
		config:  cfg,
		store:   store,
		discord: session,
		engine:  engine,
		router:  router,
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config) (ports.Repository, error) {
	if cfg.DatabaseURL != "" {
		slog.Info("Using Postgres storage")
		return postgres.New(ctx, cfg.DatabaseURL)
	}

	slog.Info("Using JSON file storage", "dir", cfg.DataDir)
	return jsonfile.New(cfg.DataDir)
}

func (a *App) Run() error {
	if err := a.discord.Open(); err != nil {
		slog.Error("Failed to open discord session", "error", err)
		return err
	}

	commands := GetApplicationCommands()
	CleanupCommands(a.discord, a.registeredCommands, a.discord.State.User.ID, a.config.DiscordGuildID)
	a.registeredCommands = RegisterCommands(a.discord, commands, a.discord.State.User.ID, a.config.DiscordGuildID)

	slog.Info("Guild Leveling Bot is online!")

	var autosaveCtx context.Context
	autosaveCtx, a.autosaveCancel = context.WithCancel(context.Background())
	a.autosaveDone = make(chan struct{})
	go func() {
		defer close(a.autosaveDone)
		a.engine.RunAutosave(autosaveCtx)
	}()

	if a.config.MetricsAddr != "" {
		a.metricsServer = &http.Server{Addr: a.config.MetricsAddr, Handler: promhttp.Handler()}
		go func() {
			slog.Info("Metrics server listening", "addr", a.config.MetricsAddr)
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down...")

	if a.autosaveCancel != nil {
		a.autosaveCancel()
		select {
		case <-a.autosaveDone:
		case <-ctx.Done():
			slog.Warn("Timed out waiting for final autosave")
		}
	}

	var firstErr error
	if a.engine != nil {
		if err := a.engine.FlushAll(ctx); err != nil {
			firstErr = err
		}
	}

	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		a.metricsServer.Shutdown(shutdownCtx)
		cancel()
	}

	if a.discord != nil {
		a.discord.Close()
	}

	if a.store != nil {
		a.store.Close()
	}

	return firstErr
}
