package discord

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type call struct {
	method string
	target string
	arg    any
}

// fakeREST records every call and answers from canned state.
type fakeREST struct {
	mu    sync.Mutex
	calls []call

	remote    []*discordgo.ApplicationCommand
	perms     int64
	permsErr  error
	createErr map[string]error
	sendErr   error
	nextID    int
}

func newFakeREST() *fakeREST {
	return &fakeREST{createErr: map[string]error{}}
}

func (f *fakeREST) record(method, target string, arg any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, target: target, arg: arg})
}

func (f *fakeREST) called(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeREST) targets(method string) []string {
	var out []string
	for _, c := range f.called(method) {
		out = append(out, c.target)
	}
	sort.Strings(out)
	return out
}

func (f *fakeREST) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.record("InteractionRespond", i.ID, resp)
	return nil
}

func (f *fakeREST) InteractionResponse(i *discordgo.Interaction, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("InteractionResponse", i.ID, nil)
	return &discordgo.Message{ID: "original"}, nil
}

func (f *fakeREST) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("InteractionResponseEdit", i.ID, edit)
	return &discordgo.Message{ID: "original"}, nil
}

func (f *fakeREST) FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("FollowupMessageCreate", i.ID, data)
	return &discordgo.Message{ID: "followup"}, nil
}

func (f *fakeREST) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("ChannelMessageSendComplex", channelID, data)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &discordgo.Message{ID: "m", ChannelID: channelID}, nil
}

func (f *fakeREST) ChannelTyping(channelID string, _ ...discordgo.RequestOption) error {
	f.record("ChannelTyping", channelID, nil)
	return nil
}

func (f *fakeREST) UserChannelPermissions(userID, channelID string, _ ...discordgo.RequestOption) (int64, error) {
	f.record("UserChannelPermissions", channelID, userID)
	return f.perms, f.permsErr
}

func (f *fakeREST) ApplicationCommands(appID, guildID string, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.record("ApplicationCommands", guildID, nil)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.ApplicationCommand(nil), f.remote...), nil
}

func (f *fakeREST) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, _ ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	f.record("ApplicationCommandCreate", cmd.Name, cmd)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[cmd.Name]; err != nil {
		return nil, err
	}
	f.nextID++
	created := *cmd
	created.ID = strconv.Itoa(f.nextID)
	for i, rc := range f.remote {
		if rc.Name == cmd.Name {
			f.remote[i] = &created
			return &created, nil
		}
	}
	f.remote = append(f.remote, &created)
	return &created, nil
}

func (f *fakeREST) ApplicationCommandDelete(appID, guildID, cmdID string, _ ...discordgo.RequestOption) error {
	f.record("ApplicationCommandDelete", cmdID, nil)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rc := range f.remote {
		if rc.ID == cmdID {
			f.remote = append(f.remote[:i], f.remote[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeREST) GuildLeave(guildID string, _ ...discordgo.RequestOption) error {
	f.record("GuildLeave", guildID, nil)
	return nil
}

var _ REST = (*fakeREST)(nil)

func restError(status int, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status, Status: http.StatusText(status)},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "denied"},
	}
}

// snowflakeAt builds an ID whose embedded timestamp is t.
func snowflakeAt(t time.Time) string {
	const discordEpoch = 1420070400000
	return strconv.FormatInt((t.UnixMilli()-discordEpoch)<<22, 10)
}
