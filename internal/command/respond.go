package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MaxContextLength bounds the context label embedded in error replies.
// It matches the embed field value limit.
const MaxContextLength = 1024

const errorColor = 0xE74C3C

var errNoReplier = errors.New("invocation has no replier")

// Responder is the single boundary that delivers replies and turns failures
// into user-facing messages.
type Responder struct {
	// Now is the clock used for expiry checks.
	Now func() time.Time

	log zerolog.Logger
}

func NewResponder() *Responder {
	return &Responder{
		Now: time.Now,
		log: log.With().Str("component", "responder").Logger(),
	}
}

func (r *Responder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Respond delivers resp through the channel the reply state allows: a fresh
// reply, an edit of the deferred placeholder, or a follow-up. When that send
// fails, or the invocation has expired, the response is posted straight into
// the origin channel without its ephemeral flag.
func (r *Responder) Respond(ctx context.Context, inv *Invocation, resp *Response) (*discordgo.Message, error) {
	if inv.Replier == nil {
		return nil, errNoReplier
	}
	if resp == nil {
		resp = &Response{}
	}

	if IsExpired(inv, r.now()) {
		return r.channelPost(ctx, inv, resp, NewError(KindExpired, "respond", nil))
	}

	var (
		msg *discordgo.Message
		err error
		via string
	)
	switch inv.ReplyState() {
	case Unreplied:
		via = "reply"
		msg, err = inv.Replier.Reply(ctx, resp)
	case Deferred:
		via = "edit"
		msg, err = inv.Replier.EditReply(ctx, resp)
	default:
		via = "followup"
		msg, err = inv.Replier.Followup(ctx, resp)
	}
	if err == nil {
		inv.markReplied()
		return msg, nil
	}

	r.log.Warn().Err(err).
		Str("invocation", inv.ID).
		Str("via", via).
		Msg("reply failed, falling back to channel post")
	return r.channelPost(ctx, inv, resp, err)
}

func (r *Responder) channelPost(ctx context.Context, inv *Invocation, resp *Response, cause error) (*discordgo.Message, error) {
	if inv.Origin.ChannelID == "" {
		return nil, fmt.Errorf("no origin channel for fallback: %w", cause)
	}
	msg, err := inv.Replier.ChannelPost(ctx, inv.Origin.ChannelID, resp.Public())
	if err != nil {
		return nil, errors.Join(cause, fmt.Errorf("channel post: %w", err))
	}
	return msg, nil
}

// Defer acknowledges the invocation so the handler can take longer than the
// platform's initial response window. It is a no-op once anything was sent.
func (r *Responder) Defer(ctx context.Context, inv *Invocation, ephemeral bool) error {
	if inv.Replier == nil {
		return errNoReplier
	}
	if IsExpired(inv, r.now()) {
		return NewError(KindExpired, "defer", nil)
	}
	if inv.ReplyState() != Unreplied {
		return nil
	}
	if err := inv.Replier.Defer(ctx, ephemeral); err != nil {
		return err
	}
	inv.markDeferred()
	return nil
}

// RespondError classifies err and tells the user about it. It never panics
// and never returns an error; delivery problems are only logged.
func (r *Responder) RespondError(ctx context.Context, inv *Invocation, err error, label string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Str("label", label).Msg("error response panicked")
		}
	}()

	kind := Classify(err)
	label = TruncateLabel(label, MaxContextLength)

	event := r.log.Error()
	if kind == KindExpired || kind == KindMissingPermissions {
		event = r.log.Warn()
	}
	event.Err(err).
		Str("invocation", inv.ID).
		Str("command", inv.QualifiedName()).
		Str("kind", kind.String()).
		Str("label", label).
		Msg("command failed")

	if kind == KindUnresolvable {
		return
	}

	if _, sendErr := r.Respond(ctx, inv, errorResponse(kind, label)); sendErr != nil {
		r.log.Error().Err(sendErr).
			Str("invocation", inv.ID).
			Str("kind", kind.String()).
			Msg("failed to deliver error response")
	}
}

// HandleTimeout tells the user the invocation timed out. There is no retry.
func (r *Responder) HandleTimeout(ctx context.Context, inv *Invocation, label string) {
	r.RespondError(ctx, inv, NewError(KindExpired, "timeout", nil), label)
}

func errorResponse(kind ErrorKind, label string) *Response {
	embed := &discordgo.MessageEmbed{
		Title:       "Something went wrong",
		Description: kind.Message(),
		Color:       errorColor,
	}
	if label != "" {
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:  "Context",
			Value: label,
		}}
	}
	return &Response{
		Embeds:    []*discordgo.MessageEmbed{embed},
		Ephemeral: true,
	}
}

// TruncateLabel cuts s to at most limit runes.
func TruncateLabel(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
