package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/tavern-bot/internal/command"
	"github.com/keshon/tavern-bot/internal/storage"
	"github.com/keshon/tavern-bot/pkg/util"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 25
)

// dbStatusHandler reports how many records each collection holds, the
// backend's own figures and running jobs. It defers first since a networked
// store can be slow.
type dbStatusHandler struct {
	deps Deps
}

func (h *dbStatusHandler) Run(ctx context.Context, inv *command.Invocation) error {
	if err := inv.Defer(ctx, true); err != nil {
		return err
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(storage.Collections))
	for _, name := range storage.Collections {
		ids, err := h.deps.Store.CollectionIDs(ctx, name)
		if err != nil {
			return fmt.Errorf("count %s: %w", name, err)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   name,
			Value:  fmt.Sprintf("%d records", len(ids)),
			Inline: true,
		})
	}
	if stats := h.deps.Store.Stats(); len(stats) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "backend", Value: formatStats(stats)})
	}
	if h.deps.Jobs != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "jobs", Value: h.deps.Jobs.Status()})
	}

	_, err := inv.Respond(ctx, &command.Response{
		Embeds: []*discordgo.MessageEmbed{{
			Title:  "🗄️ Storage",
			Fields: fields,
			Color:  EmbedColor,
		}},
		Ephemeral: true,
	})
	return err
}

func formatStats(stats map[string]any) string {
	parts := make([]string, 0, len(stats))
	for _, k := range slices.Sorted(maps.Keys(stats)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, stats[k]))
	}
	return strings.Join(parts, ", ")
}

type historyHandler struct {
	deps Deps
}

func (h *historyHandler) Run(ctx context.Context, inv *command.Invocation) error {
	limit := int64(defaultHistoryLimit)
	if n, ok := inv.Args.Int("limit"); ok {
		limit = n
	} else if n, err := strconv.ParseInt(inv.Args.Arg(0), 10, 64); err == nil {
		limit = n
	}
	limit = max(1, min(limit, maxHistoryLimit))

	all, err := h.deps.Store.CommandHistory(ctx)
	if err != nil {
		return err
	}

	var rows []string
	for i := len(all) - 1; i >= 0 && int64(len(rows)) < limit; i-- {
		rec := all[i]
		if rec.GuildID != inv.Origin.GuildID {
			continue
		}
		rows = append(rows, fmt.Sprintf("%s **%s** `%s` (%s)",
			util.FormatDate(rec.Datetime, "YYYY-MM-DD hh:mm"), rec.Username, rec.Command, rec.Source))
	}

	desc := "No commands recorded yet."
	if len(rows) > 0 {
		desc = strings.Join(rows, "\n")
	}
	_, err = inv.Respond(ctx, &command.Response{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📜 Recent commands",
			Description: desc,
			Color:       EmbedColor,
		}},
		Ephemeral: true,
	})
	return err
}
