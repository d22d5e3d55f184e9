package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/tavern-bot/internal/command"
)

// Definitions converts every registered descriptor into the slash command
// payload Discord expects, in registry order.
func Definitions(reg *command.Registry) []*discordgo.ApplicationCommand {
	all := reg.All()
	defs := make([]*discordgo.ApplicationCommand, 0, len(all))
	for _, d := range all {
		defs = append(defs, definition(d))
	}
	return defs
}

func definition(d *command.Descriptor) *discordgo.ApplicationCommand {
	def := &discordgo.ApplicationCommand{
		Type:        discordgo.ChatApplicationCommand,
		Name:        d.Name,
		Description: d.Description,
	}
	if d.Permissions != 0 {
		perms := d.Permissions
		def.DefaultMemberPermissions = &perms
	}

	if len(d.Subcommands) > 0 {
		for _, sub := range d.Subcommands {
			def.Options = append(def.Options, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        sub.Name,
				Description: sub.Description,
				Options:     options(sub.Options),
			})
		}
		return def
	}
	def.Options = options(d.Options)
	return def
}

func options(opts []command.Option) []*discordgo.ApplicationCommandOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]*discordgo.ApplicationCommandOption, 0, len(opts))
	for _, o := range opts {
		opt := &discordgo.ApplicationCommandOption{
			Name:        o.Name,
			Description: o.Description,
			Required:    o.Required,
		}
		switch o.Type {
		case command.OptionInteger:
			opt.Type = discordgo.ApplicationCommandOptionInteger
		case command.OptionBoolean:
			opt.Type = discordgo.ApplicationCommandOptionBoolean
		default:
			opt.Type = discordgo.ApplicationCommandOptionString
		}
		for _, c := range o.Choices {
			opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{
				Name:  c.Label,
				Value: c.Value,
			})
		}
		out = append(out, opt)
	}
	return out
}
