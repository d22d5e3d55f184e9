package discord

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/tavern-bot/internal/command"
)

var noop = command.HandlerFunc(func(context.Context, *command.Invocation) error { return nil })

func testRegistry(t *testing.T) *command.Registry {
	t.Helper()
	reg := command.NewRegistry()
	require.NoError(t, reg.Register(&command.Descriptor{
		Name:        "ping",
		Description: "Check latency",
		Handler:     command.HandlerFunc(pong),
	}))
	require.NoError(t, reg.Register(&command.Descriptor{
		Name:        "admin",
		Description: "Server administration",
		Permissions: discordgo.PermissionManageGuild,
		Handler:     noop,
		Subcommands: []command.Subcommand{
			{Name: "status", Description: "Storage status"},
			{Name: "history", Description: "Recent commands", Options: []command.Option{
				{Name: "limit", Description: "How many", Type: command.OptionInteger},
			}},
		},
	}))
	require.NoError(t, reg.Register(&command.Descriptor{
		Name:        "pets",
		Description: "Companions",
		Handler:     noop,
		Options: []command.Option{
			{Name: "kind", Description: "Which pet", Type: command.OptionChoice, Required: true, Choices: []command.Choice{
				{Label: "Dragon whelp", Value: "dragon"},
				{Label: "Cat", Value: "cat"},
			}},
			{Name: "shiny", Description: "Shiny only", Type: command.OptionBoolean},
		},
	}))
	return reg
}

func pong(ctx context.Context, inv *command.Invocation) error {
	_, err := inv.Respond(ctx, &command.Response{Content: "pong"})
	return err
}

func byName(defs []*discordgo.ApplicationCommand, name string) *discordgo.ApplicationCommand {
	for _, d := range defs {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func TestDefinitions(t *testing.T) {
	defs := Definitions(testRegistry(t))
	require.Len(t, defs, 3)

	ping := byName(defs, "ping")
	require.NotNil(t, ping)
	assert.Equal(t, discordgo.ChatApplicationCommand, ping.Type)
	assert.Nil(t, ping.DefaultMemberPermissions)
	assert.Empty(t, ping.Options)

	admin := byName(defs, "admin")
	require.NotNil(t, admin)
	require.NotNil(t, admin.DefaultMemberPermissions)
	assert.Equal(t, int64(discordgo.PermissionManageGuild), *admin.DefaultMemberPermissions)
	require.Len(t, admin.Options, 2)
	assert.Equal(t, discordgo.ApplicationCommandOptionSubCommand, admin.Options[0].Type)
	assert.Equal(t, "status", admin.Options[0].Name)
	require.Len(t, admin.Options[1].Options, 1)
	assert.Equal(t, discordgo.ApplicationCommandOptionInteger, admin.Options[1].Options[0].Type)

	pets := byName(defs, "pets")
	require.NotNil(t, pets)
	kind := pets.Options[0]
	assert.Equal(t, discordgo.ApplicationCommandOptionString, kind.Type)
	assert.True(t, kind.Required)
	require.Len(t, kind.Choices, 2)
	assert.Equal(t, "Dragon whelp", kind.Choices[0].Name)
	assert.Equal(t, "dragon", kind.Choices[0].Value)
	assert.Equal(t, discordgo.ApplicationCommandOptionBoolean, pets.Options[1].Type)
}

func TestHashCommand(t *testing.T) {
	defs := Definitions(testRegistry(t))
	admin := byName(defs, "admin")
	base := hashCommand(admin)

	// Discord-assigned fields do not count.
	withID := *admin
	withID.ID = "123"
	withID.Version = "9"
	assert.Equal(t, base, hashCommand(&withID))

	// Option order does not count either.
	reordered := *admin
	reordered.Options = []*discordgo.ApplicationCommandOption{admin.Options[1], admin.Options[0]}
	assert.Equal(t, base, hashCommand(&reordered))

	changed := *admin
	changed.Description = "Something else"
	assert.NotEqual(t, base, hashCommand(&changed))

	unprivileged := *admin
	unprivileged.DefaultMemberPermissions = nil
	assert.NotEqual(t, base, hashCommand(&unprivileged))
}
