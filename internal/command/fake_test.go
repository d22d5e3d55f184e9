package command

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// fakeReplier records every call and fails the methods named in fail.
type fakeReplier struct {
	mu    sync.Mutex
	calls []string
	sent  []*Response
	posts []string
	fail  map[string]bool
}

func newFakeReplier(failing ...string) *fakeReplier {
	f := &fakeReplier{fail: make(map[string]bool)}
	for _, m := range failing {
		f.fail[m] = true
	}
	return f
}

func (f *fakeReplier) record(method string, resp *Response) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	if f.fail[method] {
		return nil, errors.New(method + " failed")
	}
	f.sent = append(f.sent, resp)
	content := ""
	if resp != nil {
		content = resp.Content
	}
	return &discordgo.Message{ID: "m" + method, Content: content}, nil
}

func (f *fakeReplier) Reply(_ context.Context, resp *Response) (*discordgo.Message, error) {
	return f.record("reply", resp)
}

func (f *fakeReplier) Defer(_ context.Context, _ bool) error {
	_, err := f.record("defer", nil)
	return err
}

func (f *fakeReplier) EditReply(_ context.Context, resp *Response) (*discordgo.Message, error) {
	return f.record("edit", resp)
}

func (f *fakeReplier) Followup(_ context.Context, resp *Response) (*discordgo.Message, error) {
	return f.record("followup", resp)
}

func (f *fakeReplier) ChannelPost(_ context.Context, channelID string, resp *Response) (*discordgo.Message, error) {
	f.mu.Lock()
	f.posts = append(f.posts, channelID)
	f.mu.Unlock()
	return f.record("channel", resp)
}

func (f *fakeReplier) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeReplier) Last() *Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestResponder() *Responder {
	r := NewResponder()
	r.Now = clock
	return r
}

func guildInvocation(r Replier) *Invocation {
	return &Invocation{
		ID:        "inv-1",
		Actor:     Actor{ID: "u1", Username: "alice"},
		Origin:    Origin{GuildID: "g1", ChannelID: "c1"},
		CreatedAt: fixedNow,
		Replier:   r,
	}
}

func dmInvocation(r Replier) *Invocation {
	inv := guildInvocation(r)
	inv.Origin = Origin{ChannelID: "dm1"}
	return inv
}

// recordingHandler counts runs and returns err.
type recordingHandler struct {
	mu   sync.Mutex
	runs []*Invocation
	err  error
}

func (h *recordingHandler) Run(_ context.Context, inv *Invocation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, inv)
	return h.err
}

func (h *recordingHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.runs)
}
