// Package console runs the command tree against stdin/stdout. Handy for
// trying declarations and handlers without a Discord connection.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"

	"github.com/keshon/tavern-bot/internal/command"
)

// Session describes who the console user pretends to be.
type Session struct {
	UserID      string
	Username    string
	GuildID     string
	ChannelID   string
	Permissions int64
}

// Replier prints responses as plain text.
type Replier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewReplier(w io.Writer) *Replier {
	return &Replier{w: w}
}

func (r *Replier) print(tag string, resp *command.Response) (*discordgo.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	b.WriteString("[" + tag)
	if resp.Ephemeral {
		b.WriteString(", private")
	}
	b.WriteString("]\n")
	if resp.Content != "" {
		b.WriteString(resp.Content + "\n")
	}
	for _, e := range resp.Embeds {
		writeEmbed(&b, e)
	}
	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return nil, err
	}
	return &discordgo.Message{Content: resp.Content, Embeds: resp.Embeds}, nil
}

func writeEmbed(b *strings.Builder, e *discordgo.MessageEmbed) {
	if e == nil {
		return
	}
	if e.Title != "" {
		fmt.Fprintf(b, "== %s ==\n", e.Title)
	}
	if e.Description != "" {
		b.WriteString(e.Description + "\n")
	}
	for _, f := range e.Fields {
		fmt.Fprintf(b, "  %s: %s\n", f.Name, f.Value)
	}
	if e.Footer != nil && e.Footer.Text != "" {
		fmt.Fprintf(b, "-- %s\n", e.Footer.Text)
	}
}

func (r *Replier) Reply(_ context.Context, resp *command.Response) (*discordgo.Message, error) {
	return r.print("reply", resp)
}

func (r *Replier) Defer(context.Context, bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.w, "[thinking...]\n")
	return err
}

func (r *Replier) EditReply(_ context.Context, resp *command.Response) (*discordgo.Message, error) {
	return r.print("edit", resp)
}

func (r *Replier) Followup(_ context.Context, resp *command.Response) (*discordgo.Message, error) {
	return r.print("followup", resp)
}

func (r *Replier) ChannelPost(_ context.Context, channelID string, resp *command.Response) (*discordgo.Message, error) {
	return r.print("channel "+channelID, resp)
}

// Run dispatches every line read from in until EOF or ctx ends. Lines that
// are not commands, and unknown commands, are ignored as they would be in a
// chat channel.
func Run(ctx context.Context, disp *command.Dispatcher, s Session, in io.Reader, out io.Writer) error {
	replier := NewReplier(out)
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		inv := &command.Invocation{
			ID:          uuid.Must(uuid.NewV7()).String(),
			Actor:       command.Actor{ID: s.UserID, Username: s.Username},
			Origin:      command.Origin{GuildID: s.GuildID, ChannelID: s.ChannelID},
			Permissions: s.Permissions,
			CreatedAt:   time.Now(),
			Replier:     replier,
		}
		outcome := disp.DispatchText(ctx, inv, line)
		log.Debug().Str("line", line).Stringer("outcome", outcome).Msg("console dispatch")
	}
	return scanner.Err()
}
