package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/tavern-bot/internal/command"
	"github.com/keshon/tavern-bot/internal/storage"
	"github.com/keshon/tavern-bot/pkg/util"
)

// UserRecord is what the users collection holds per adventurer.
type UserRecord struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Level    int       `json:"level"`
	Gold     int64     `json:"gold"`
	JoinedAt time.Time `json:"joined_at"`
}

type profileHandler struct {
	deps Deps
}

func (h *profileHandler) Run(ctx context.Context, inv *command.Invocation) error {
	var rec UserRecord
	found, err := h.deps.Store.GetRecord(ctx, storage.CollectionUsers, inv.Actor.ID, &rec)
	if err != nil {
		return err
	}
	if !found {
		rec = UserRecord{
			ID:       inv.Actor.ID,
			Name:     inv.Actor.DisplayName(),
			Level:    1,
			JoinedAt: h.deps.now().UTC(),
		}
		created, err := h.deps.Store.CreateRecord(ctx, storage.CollectionUsers, rec.ID, rec)
		if err != nil {
			return err
		}
		if !created {
			// A concurrent invocation got there first.
			if found, err = h.deps.Store.GetRecord(ctx, storage.CollectionUsers, inv.Actor.ID, &rec); err != nil {
				return err
			}
		}
	}

	embed := &discordgo.MessageEmbed{
		Title: "🧙 " + inv.Actor.DisplayName(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Level", Value: fmt.Sprint(rec.Level), Inline: true},
			{Name: "Gold", Value: fmt.Sprint(rec.Gold), Inline: true},
			{Name: "Adventurer since", Value: util.FormatDate(rec.JoinedAt, "YYYY.MM.DD"), Inline: true},
		},
		Color: EmbedColor,
	}
	if !found {
		embed.Description = "Welcome to the tavern! A fresh profile was created for you."
	}

	_, err = inv.Respond(ctx, &command.Response{Embeds: []*discordgo.MessageEmbed{embed}})
	return err
}
