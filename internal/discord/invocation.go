package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gofrs/uuid/v5"

	"github.com/keshon/tavern-bot/internal/command"
)

func newTraceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}

func actorFrom(user *discordgo.User, member *discordgo.Member) command.Actor {
	if user == nil && member != nil {
		user = member.User
	}
	var a command.Actor
	if user != nil {
		a.ID = user.ID
		a.Username = user.Username
		a.GlobalName = user.GlobalName
		a.Bot = user.Bot
	}
	if member != nil {
		a.Nick = member.Nick
	}
	return a
}

// structuredInvocation converts a slash command interaction. The command,
// subcommand and options come straight from the payload.
func structuredInvocation(rest REST, i *discordgo.InteractionCreate) *command.Invocation {
	data := i.ApplicationCommandData()

	inv := &command.Invocation{
		ID:      newTraceID(),
		Kind:    command.Structured,
		Command: data.Name,
		Actor:   actorFrom(i.User, i.Member),
		Origin:  command.Origin{GuildID: i.GuildID, ChannelID: i.ChannelID},
		Replier: &interactionReplier{rest: rest, interaction: i.Interaction},
	}
	if i.Member != nil {
		inv.Permissions = i.Member.Permissions
	}
	if ts, err := discordgo.SnowflakeTimestamp(i.ID); err == nil {
		inv.CreatedAt = ts
	} else {
		inv.CreatedAt = time.Now()
	}

	opts := data.Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		inv.Subcommand = opts[0].Name
		opts = opts[0].Options
	}
	inv.Args.Options = flattenOptions(opts)
	return inv
}

func flattenOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]any {
	out := make(map[string]any, len(opts))
	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionInteger:
			out[o.Name] = o.IntValue()
		case discordgo.ApplicationCommandOptionBoolean:
			out[o.Name] = o.BoolValue()
		case discordgo.ApplicationCommandOptionString:
			out[o.Name] = o.StringValue()
		default:
			out[o.Name] = o.Value
		}
	}
	return out
}

// textInvocation converts a chat message. perms are the author's resolved
// channel permissions; they only matter for guild messages.
func textInvocation(rest REST, m *discordgo.MessageCreate, perms int64) *command.Invocation {
	inv := &command.Invocation{
		ID:          newTraceID(),
		Kind:        command.Text,
		Actor:       actorFrom(m.Author, m.Member),
		Origin:      command.Origin{GuildID: m.GuildID, ChannelID: m.ChannelID},
		Permissions: perms,
		CreatedAt:   m.Timestamp,
		Replier: &messageReplier{
			rest:      rest,
			channelID: m.ChannelID,
			reference: m.Reference(),
		},
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	return inv
}
