package command

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Kind tells the two invocation shapes apart.
type Kind int

const (
	// Structured invocations come from slash interactions; the platform has
	// already validated their options against the declared schema.
	Structured Kind = iota + 1
	// Text invocations come from prefixed chat messages with raw arguments.
	Text
)

func (k Kind) String() string {
	switch k {
	case Structured:
		return "structured"
	case Text:
		return "text"
	}
	return "unknown"
}

// ReplyState tracks what has already been sent for an invocation.
type ReplyState int

const (
	Unreplied ReplyState = iota
	Deferred
	Replied
)

func (s ReplyState) String() string {
	switch s {
	case Unreplied:
		return "unreplied"
	case Deferred:
		return "deferred"
	case Replied:
		return "replied"
	}
	return "unknown"
}

// Actor is the user behind an invocation.
type Actor struct {
	ID         string
	Username   string
	GlobalName string
	Nick       string
	Bot        bool
}

// DisplayName resolves nick, then global display name, then account name.
func (a Actor) DisplayName() string {
	for _, name := range []string{a.Nick, a.GlobalName, a.Username} {
		if strings.TrimSpace(name) != "" {
			return name
		}
	}
	return "Unknown User"
}

// Origin is where an invocation happened. A DM has a channel but no guild.
type Origin struct {
	GuildID   string
	ChannelID string
}

func (o Origin) IsDM() bool {
	return o.GuildID == "" && o.ChannelID != ""
}

// Response is a transport-neutral reply payload.
type Response struct {
	Content   string
	Embeds    []*discordgo.MessageEmbed
	Ephemeral bool
}

// Public returns a copy of r with the ephemeral flag stripped. Channel posts
// are visible to everyone, so privacy flags have no meaning there.
func (r *Response) Public() *Response {
	cp := *r
	cp.Ephemeral = false
	return &cp
}

// Replier sends replies for one inbound event over its transport.
type Replier interface {
	Reply(ctx context.Context, resp *Response) (*discordgo.Message, error)
	Defer(ctx context.Context, ephemeral bool) error
	EditReply(ctx context.Context, resp *Response) (*discordgo.Message, error)
	Followup(ctx context.Context, resp *Response) (*discordgo.Message, error)
	ChannelPost(ctx context.Context, channelID string, resp *Response) (*discordgo.Message, error)
}

// Args carries parsed arguments. Structured invocations fill Options by name;
// text invocations fill Positional in order.
type Args struct {
	Options    map[string]any
	Positional []string
}

func (a Args) String(name string) (string, bool) {
	v, ok := a.Options[name]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func (a Args) Int(name string) (int64, bool) {
	switch t := a.Options[name].(type) {
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func (a Args) Bool(name string) (bool, bool) {
	switch t := a.Options[name].(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	}
	return false, false
}

// Arg returns the i-th positional argument or "".
func (a Args) Arg(i int) string {
	if i < 0 || i >= len(a.Positional) {
		return ""
	}
	return a.Positional[i]
}

// Invocation is the normalized context of one inbound event.
type Invocation struct {
	ID          string
	Kind        Kind
	Command     string
	Subcommand  string
	Args        Args
	Actor       Actor
	Origin      Origin
	Permissions int64
	CreatedAt   time.Time
	Replier     Replier

	responder *Responder

	mu    sync.Mutex
	state ReplyState
}

// Respond sends resp through the invocation's response boundary.
func (inv *Invocation) Respond(ctx context.Context, resp *Response) (*discordgo.Message, error) {
	return inv.boundary().Respond(ctx, inv, resp)
}

// Defer acknowledges the invocation; see Responder.Defer.
func (inv *Invocation) Defer(ctx context.Context, ephemeral bool) error {
	return inv.boundary().Defer(ctx, inv, ephemeral)
}

func (inv *Invocation) boundary() *Responder {
	if inv.responder == nil {
		inv.responder = NewResponder()
	}
	return inv.responder
}

// QualifiedName is the command with its subcommand, e.g. "market buy".
func (inv *Invocation) QualifiedName() string {
	if inv.Subcommand == "" {
		return inv.Command
	}
	return inv.Command + " " + inv.Subcommand
}

func (inv *Invocation) ReplyState() ReplyState {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

// markDeferred moves Unreplied to Deferred and reports whether it did.
func (inv *Invocation) markDeferred() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.state != Unreplied {
		return false
	}
	inv.state = Deferred
	return true
}

// markReplied is terminal; it is reachable from every state.
func (inv *Invocation) markReplied() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.state = Replied
}
