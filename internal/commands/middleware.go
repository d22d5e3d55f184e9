package commands

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keshon/tavern-bot/internal/command"
	"github.com/keshon/tavern-bot/internal/storage"
)

// WithCommandHistory records every successfully handled command. A storage
// failure is logged and never fails the command itself.
func WithCommandHistory(store *storage.Storage, now func() time.Time) command.Middleware {
	if now == nil {
		now = time.Now
	}
	return func(next command.Handler) command.Handler {
		return command.HandlerFunc(func(ctx context.Context, inv *command.Invocation) error {
			if err := next.Run(ctx, inv); err != nil {
				return err
			}
			err := store.AppendCommandHistory(ctx, storage.CommandHistory{
				GuildID:   inv.Origin.GuildID,
				ChannelID: inv.Origin.ChannelID,
				UserID:    inv.Actor.ID,
				Username:  inv.Actor.Username,
				Command:   inv.QualifiedName(),
				Source:    inv.Kind.String(),
				Datetime:  now().UTC(),
			})
			if err != nil {
				log.Warn().Err(err).Str("command", inv.QualifiedName()).Msg("failed to log command")
			}
			return nil
		})
	}
}

// WithExecutionLog logs how each command ended and how long it took.
func WithExecutionLog() command.Middleware {
	logger := log.With().Str("component", "commands").Logger()
	return func(next command.Handler) command.Handler {
		return command.HandlerFunc(func(ctx context.Context, inv *command.Invocation) error {
			start := time.Now()
			err := next.Run(ctx, inv)
			event := logger.Info()
			if err != nil {
				event = logger.Warn().Err(err)
			}
			event.
				Str("invocation", inv.ID).
				Str("command", inv.QualifiedName()).
				Str("user", inv.Actor.ID).
				Str("guild", inv.Origin.GuildID).
				Dur("took", time.Since(start)).
				Msg("command executed")
			return err
		})
	}
}

// WithGuildOnly answers direct-message invocations of the named commands with
// a notice instead of running them. Permission guards always pass in DMs.
func WithGuildOnly(names ...string) command.Middleware {
	guildOnly := make(map[string]bool, len(names))
	for _, n := range names {
		guildOnly[strings.ToLower(n)] = true
	}
	return func(next command.Handler) command.Handler {
		return command.HandlerFunc(func(ctx context.Context, inv *command.Invocation) error {
			if !inv.Origin.IsDM() || !guildOnly[strings.ToLower(inv.Command)] {
				return next.Run(ctx, inv)
			}
			_, err := inv.Respond(ctx, &command.Response{
				Content:   "🏰 `/" + inv.Command + "` only works inside a server.",
				Ephemeral: true,
			})
			return err
		})
	}
}
