package handlers

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// CommandHandler serves one top-level slash command; it receives the
// narrowed DiscordSession so handlers stay testable without a gateway.
type CommandHandler func(s DiscordSession, i *discordgo.InteractionCreate)

// Router dispatches application-command interactions by top-level
// command name. Registration happens once during startup; the map is
// read-only afterwards, so no locking is needed.
type Router struct {
	handlers map[string]CommandHandler
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]CommandHandler)}
}

func (r *Router) Register(command string, handler CommandHandler) {
	r.handlers[command] = handler
}

// Handle routes a single interaction. Non-command interactions and
// names without a handler (stale registrations from a prior deploy) are
// dropped.
func (r *Router) Handle(s DiscordSession, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	handler, ok := r.handlers[name]
	if !ok {
		slog.Warn("No handler registered for command", "name", name)
		return
	}
	handler(s, i)
}

// HandleFunc adapts Handle to the signature discordgo.AddHandler wants.
func (r *Router) HandleFunc() func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		r.Handle(s, i)
	}
}
