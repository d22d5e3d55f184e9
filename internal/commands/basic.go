package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/tavern-bot/internal/command"
)

// placeholder answers every game command that has no implementation yet.
func placeholder(ctx context.Context, inv *command.Invocation) error {
	_, err := inv.Respond(ctx, &command.Response{
		Content:   fmt.Sprintf("🚧 `%s` is not available yet. The tavern keeper is still working on it.", inv.QualifiedName()),
		Ephemeral: true,
	})
	return err
}

type pingHandler struct {
	deps Deps
}

func (h *pingHandler) Run(ctx context.Context, inv *command.Invocation) error {
	latency := h.deps.now().Sub(inv.CreatedAt)
	if latency < 0 {
		latency = 0
	}
	embed := &discordgo.MessageEmbed{
		Description: fmt.Sprintf("🏓 Pong! Response time: `%dms`", latency.Milliseconds()),
		Color:       EmbedColor,
	}
	if !h.deps.StartedAt.IsZero() {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: "Up for " + h.deps.now().Sub(h.deps.StartedAt).Truncate(time.Second).String(),
		}
	}
	_, err := inv.Respond(ctx, &command.Response{Embeds: []*discordgo.MessageEmbed{embed}})
	return err
}
