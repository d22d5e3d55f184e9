package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/tavern-bot/internal/storage"
)

func TestRespondChannelPrecedence(t *testing.T) {
	ctx := context.Background()
	r := newTestResponder()
	fake := newFakeReplier()
	inv := guildInvocation(fake)

	_, err := r.Respond(ctx, inv, &Response{Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, Replied, inv.ReplyState())

	_, err = r.Respond(ctx, inv, &Response{Content: "second"})
	require.NoError(t, err)

	assert.Equal(t, []string{"reply", "followup"}, fake.Calls())
}

func TestRespondAfterDeferEditsPlaceholder(t *testing.T) {
	ctx := context.Background()
	r := newTestResponder()
	fake := newFakeReplier()
	inv := guildInvocation(fake)

	require.NoError(t, r.Defer(ctx, inv, true))
	assert.Equal(t, Deferred, inv.ReplyState())

	// A second defer is a no-op.
	require.NoError(t, r.Defer(ctx, inv, true))

	msg, err := r.Respond(ctx, inv, &Response{Content: "done"})
	require.NoError(t, err)
	assert.Equal(t, "done", msg.Content)
	assert.Equal(t, Replied, inv.ReplyState())

	require.NoError(t, r.Defer(ctx, inv, false))
	assert.Equal(t, Replied, inv.ReplyState())

	assert.Equal(t, []string{"defer", "edit"}, fake.Calls())
}

func TestRespondRepliedNeverUsesFreshReply(t *testing.T) {
	fake := newFakeReplier()
	inv := guildInvocation(fake)
	inv.markReplied()

	// Deferring after a reply must not move the state back.
	assert.False(t, inv.markDeferred())

	_, err := newTestResponder().Respond(context.Background(), inv, &Response{Content: "more"})
	require.NoError(t, err)
	assert.Equal(t, []string{"followup"}, fake.Calls())
}

func TestRespondFallbackStripsEphemeral(t *testing.T) {
	fake := newFakeReplier("reply")
	inv := guildInvocation(fake)
	resp := &Response{Content: "secret", Ephemeral: true}

	msg, err := newTestResponder().Respond(context.Background(), inv, resp)
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, []string{"reply", "channel"}, fake.Calls())
	assert.Equal(t, []string{"c1"}, fake.posts)
	assert.False(t, fake.Last().Ephemeral)
	assert.True(t, resp.Ephemeral, "caller's response must not be modified")
	assert.Equal(t, Unreplied, inv.ReplyState())
}

func TestRespondExpiredOnlyPostsToChannel(t *testing.T) {
	fake := newFakeReplier()
	inv := guildInvocation(fake)
	inv.CreatedAt = fixedNow.Add(-20 * time.Minute)

	_, err := newTestResponder().Respond(context.Background(), inv, &Response{Content: "late", Ephemeral: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"channel"}, fake.Calls())
	assert.False(t, fake.Last().Ephemeral)

	err = newTestResponder().Defer(context.Background(), inv, false)
	assert.Equal(t, KindExpired, Classify(err))
}

func TestRespondAllChannelsFail(t *testing.T) {
	fake := newFakeReplier("reply", "channel")
	_, err := newTestResponder().Respond(context.Background(), guildInvocation(fake), &Response{Content: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reply failed")
	assert.Contains(t, err.Error(), "channel failed")
}

func TestRespondWithoutChannelCannotFallBack(t *testing.T) {
	fake := newFakeReplier("reply")
	inv := guildInvocation(fake)
	inv.Origin.ChannelID = ""

	_, err := newTestResponder().Respond(context.Background(), inv, &Response{Content: "x"})
	assert.Error(t, err)
	assert.Equal(t, []string{"reply"}, fake.Calls())
}

func TestRespondErrorTruncatesLabel(t *testing.T) {
	fake := newFakeReplier()
	label := strings.Repeat("é", MaxContextLength+500)

	newTestResponder().RespondError(context.Background(), guildInvocation(fake), errors.New("boom"), label)

	resp := fake.Last()
	require.NotNil(t, resp)
	assert.True(t, resp.Ephemeral)
	field := resp.Embeds[0].Fields[0]
	assert.Equal(t, "Context", field.Name)
	assert.Equal(t, MaxContextLength, utf8.RuneCountInString(field.Value))
}

func TestRespondErrorSurvivesTotalDeliveryFailure(t *testing.T) {
	fake := newFakeReplier("reply", "edit", "followup", "channel")
	r := newTestResponder()

	assert.NotPanics(t, func() {
		r.RespondError(context.Background(), guildInvocation(fake), errors.New("boom"), strings.Repeat("x", 5000))
	})
	assert.Equal(t, []string{"reply", "channel"}, fake.Calls())

	assert.NotPanics(t, func() {
		r.RespondError(context.Background(), nil, errors.New("boom"), "nil invocation")
	})
	assert.NotPanics(t, func() {
		r.RespondError(context.Background(), &Invocation{}, errors.New("boom"), "no replier")
	})
}

func TestRespondErrorUnresolvableIsSilent(t *testing.T) {
	fake := newFakeReplier()
	newTestResponder().RespondError(context.Background(), guildInvocation(fake), NewError(KindUnresolvable, "lookup", nil), "x")
	assert.Empty(t, fake.Calls())
}

func TestHandleTimeout(t *testing.T) {
	fake := newFakeReplier()
	newTestResponder().HandleTimeout(context.Background(), guildInvocation(fake), "market buy")

	require.Equal(t, []string{"reply"}, fake.Calls())
	assert.Equal(t, KindExpired.Message(), fake.Last().Embeds[0].Description)
}

func TestClassify(t *testing.T) {
	restErr := func(code int) error {
		return &discordgo.RESTError{
			Response: &http.Response{Status: "403 Forbidden", StatusCode: http.StatusForbidden},
			Message:  &discordgo.APIErrorMessage{Code: code, Message: "denied"},
		}
	}

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindRuntime},
		{"plain", errors.New("x"), KindRuntime},
		{"typed", NewError(KindMissingAccess, "op", nil), KindMissingAccess},
		{"wrapped typed", fmt.Errorf("ctx: %w", NewError(KindExpired, "op", nil)), KindExpired},
		{"storage", fmt.Errorf("load: %w", &storage.Error{Op: "get", Err: errors.New("io")}), KindDatabase},
		{"discord missing permissions", restErr(discordgo.ErrCodeMissingPermissions), KindMissingPermissions},
		{"discord missing access", fmt.Errorf("send: %w", restErr(discordgo.ErrCodeMissingAccess)), KindMissingAccess},
		{"discord other", restErr(discordgo.ErrCodeUnknownChannel), KindRuntime},
		{"discord without body", &discordgo.RESTError{Response: &http.Response{Status: "500"}}, KindRuntime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestKindMessages(t *testing.T) {
	for _, k := range []ErrorKind{KindMissingPermissions, KindMissingAccess, KindDatabase, KindRuntime, KindExpired} {
		assert.NotEmpty(t, k.Message(), k.String())
	}
	assert.Empty(t, KindUnresolvable.Message())
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "abc", TruncateLabel("abc", 10))
	assert.Equal(t, "ab", TruncateLabel("abc", 2))
	assert.Equal(t, "", TruncateLabel("abc", 0))
	assert.Equal(t, "日本", TruncateLabel("日本語", 2))
}
