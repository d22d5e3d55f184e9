package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/tavern-bot/internal/command"
)

func flags(resp *command.Response) discordgo.MessageFlags {
	if resp.Ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

// channelPost sends resp as a plain channel message. Channel messages are
// always public.
func channelPost(ctx context.Context, rest REST, channelID string, resp *command.Response) (*discordgo.Message, error) {
	return rest.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: resp.Content,
		Embeds:  resp.Embeds,
	}, discordgo.WithContext(ctx))
}

// interactionReplier answers a slash command interaction.
type interactionReplier struct {
	rest        REST
	interaction *discordgo.Interaction
}

func (r *interactionReplier) Reply(ctx context.Context, resp *command.Response) (*discordgo.Message, error) {
	err := r.rest.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: resp.Content,
			Embeds:  resp.Embeds,
			Flags:   flags(resp),
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	// The reply itself went out; failing to fetch it back is not a delivery failure.
	msg, err := r.rest.InteractionResponse(r.interaction, discordgo.WithContext(ctx))
	if err != nil {
		return &discordgo.Message{Content: resp.Content, Embeds: resp.Embeds}, nil
	}
	return msg, nil
}

func (r *interactionReplier) Defer(ctx context.Context, ephemeral bool) error {
	var f discordgo.MessageFlags
	if ephemeral {
		f = discordgo.MessageFlagsEphemeral
	}
	return r.rest.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: f},
	}, discordgo.WithContext(ctx))
}

func (r *interactionReplier) EditReply(ctx context.Context, resp *command.Response) (*discordgo.Message, error) {
	content := resp.Content
	embeds := resp.Embeds
	return r.rest.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &embeds,
	}, discordgo.WithContext(ctx))
}

func (r *interactionReplier) Followup(ctx context.Context, resp *command.Response) (*discordgo.Message, error) {
	return r.rest.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: resp.Content,
		Embeds:  resp.Embeds,
		Flags:   flags(resp),
	}, discordgo.WithContext(ctx))
}

func (r *interactionReplier) ChannelPost(ctx context.Context, channelID string, resp *command.Response) (*discordgo.Message, error) {
	return channelPost(ctx, r.rest, channelID, resp)
}

// messageReplier answers a prefixed text command. Text replies cannot be
// private, so the ephemeral flag has no effect here.
type messageReplier struct {
	rest      REST
	channelID string
	reference *discordgo.MessageReference
}

func (r *messageReplier) Reply(ctx context.Context, resp *command.Response) (*discordgo.Message, error) {
	return r.rest.ChannelMessageSendComplex(r.channelID, &discordgo.MessageSend{
		Content:         resp.Content,
		Embeds:          resp.Embeds,
		Reference:       r.reference,
		AllowedMentions: &discordgo.MessageAllowedMentions{RepliedUser: false},
	}, discordgo.WithContext(ctx))
}

// Defer shows the typing indicator; there is no placeholder to edit later.
func (r *messageReplier) Defer(ctx context.Context, _ bool) error {
	return r.rest.ChannelTyping(r.channelID, discordgo.WithContext(ctx))
}

func (r *messageReplier) EditReply(ctx context.Context, resp *command.Response) (*discordgo.Message, error) {
	return r.Reply(ctx, resp)
}

func (r *messageReplier) Followup(ctx context.Context, resp *command.Response) (*discordgo.Message, error) {
	return channelPost(ctx, r.rest, r.channelID, resp)
}

func (r *messageReplier) ChannelPost(ctx context.Context, channelID string, resp *command.Response) (*discordgo.Message, error) {
	return channelPost(ctx, r.rest, channelID, resp)
}
