package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/tavern-bot/internal/command"
	"github.com/keshon/tavern-bot/internal/config"
)

type helpHandler struct {
	deps Deps
}

func (h *helpHandler) Run(ctx context.Context, inv *command.Invocation) error {
	name, ok := inv.Args.String("command")
	if !ok {
		name = inv.Args.Arg(0)
	}

	var desc string
	if name != "" {
		desc = h.describe(inv, strings.ToLower(strings.TrimPrefix(name, "/")))
	} else {
		desc = h.overview(inv)
	}

	_, err := inv.Respond(ctx, &command.Response{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       AppName + " Help",
			Description: desc,
			Color:       EmbedColor,
		}},
		Ephemeral: true,
	})
	return err
}

// visible lists the commands the actor may run, grouped by category.
func (h *helpHandler) visible(inv *command.Invocation) (map[string][]*command.Descriptor, []string) {
	byCategory := make(map[string][]*command.Descriptor)
	for _, d := range h.deps.Registry.All() {
		if !command.HasPermissions(inv, d.Permissions) {
			continue
		}
		cat := d.Category
		if cat == "" {
			cat = "Other"
		}
		byCategory[cat] = append(byCategory[cat], d)
	}

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, wj := config.CategoryWeight(cats[i]), config.CategoryWeight(cats[j])
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})
	return byCategory, cats
}

func (h *helpHandler) overview(inv *command.Invocation) string {
	byCategory, cats := h.visible(inv)
	if len(cats) == 0 {
		return "No commands available."
	}

	var sb strings.Builder
	for _, cat := range cats {
		fmt.Fprintf(&sb, "**%s**\n", cat)
		for _, d := range byCategory[cat] {
			fmt.Fprintf(&sb, "`/%s` - %s\n", d.Name, d.Description)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Use `/help command:<name>` for details.")
	return sb.String()
}

func (h *helpHandler) describe(inv *command.Invocation, name string) string {
	d, ok := h.deps.Registry.Lookup(name)
	if !ok || !command.HasPermissions(inv, d.Permissions) {
		return fmt.Sprintf("Unknown command `%s`.", name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**/%s** - %s\n", d.Name, d.Description)
	if d.Permissions != 0 {
		fmt.Fprintf(&sb, "Requires: %s\n", strings.Join(command.DescribePermissions(d.Permissions), ", "))
	}
	writeOptions(&sb, d.Options, "")
	for _, sub := range d.Subcommands {
		fmt.Fprintf(&sb, "`/%s %s` - %s\n", d.Name, sub.Name, sub.Description)
		writeOptions(&sb, sub.Options, "  ")
	}
	return sb.String()
}

func writeOptions(sb *strings.Builder, opts []command.Option, indent string) {
	for _, o := range opts {
		req := ""
		if o.Required {
			req = ", required"
		}
		fmt.Fprintf(sb, "%s• `%s` (%s%s) %s", indent, o.Name, o.Type, req, o.Description)
		if len(o.Choices) > 0 {
			labels := make([]string, len(o.Choices))
			for i, c := range o.Choices {
				labels[i] = c.Label
			}
			fmt.Fprintf(sb, ": %s", strings.Join(labels, ", "))
		}
		sb.WriteString("\n")
	}
}
