package command

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Outcome reports how one dispatch ended.
type Outcome int

const (
	// Ignored: not a command at all (no prefix, empty text, self-originated).
	Ignored Outcome = iota
	// Unresolved: looked like a command but no descriptor matched.
	Unresolved
	// Rejected: a guard failed before the handler ran.
	Rejected
	// Failed: the handler returned an error or panicked.
	Failed
	Handled
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Unresolved:
		return "unresolved"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	case Handled:
		return "handled"
	}
	return "unknown"
}

const DefaultPrefix = "!"

type DispatcherOption func(*Dispatcher)

// WithPrefix sets the text command prefix.
func WithPrefix(prefix string) DispatcherOption {
	return func(d *Dispatcher) { d.prefix = prefix }
}

// WithSelfID tells the dispatcher how to recognise the bot's own events.
func WithSelfID(fn func() string) DispatcherOption {
	return func(d *Dispatcher) { d.selfID = fn }
}

// WithMiddleware appends middlewares wrapped around every handler.
func WithMiddleware(mws ...Middleware) DispatcherOption {
	return func(d *Dispatcher) { d.middlewares = append(d.middlewares, mws...) }
}

func WithResponder(r *Responder) DispatcherOption {
	return func(d *Dispatcher) { d.responder = r }
}

// Dispatcher routes invocations to descriptors in a Registry.
type Dispatcher struct {
	registry    *Registry
	responder   *Responder
	prefix      string
	selfID      func() string
	middlewares []Middleware
	log         zerolog.Logger
}

func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		prefix:   DefaultPrefix,
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.responder == nil {
		d.responder = NewResponder()
	}
	return d
}

// ParseText splits a prefixed message into a lowercased command name and raw
// positional arguments. ok is false when content is not a command.
func ParseText(prefix, content string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

// DispatchText handles a free-text message. Messages without the prefix are
// ignored and unknown names are a silent no-op.
func (d *Dispatcher) DispatchText(ctx context.Context, inv *Invocation, content string) Outcome {
	if d.isSelf(inv) {
		return Ignored
	}
	name, args, ok := ParseText(d.prefix, content)
	if !ok {
		return Ignored
	}

	inv.Kind = Text
	inv.Command = name
	inv.Args.Positional = args

	desc, found := d.registry.Lookup(name)
	if !found {
		d.log.Debug().Str("command", name).Msg("unknown text command")
		return Unresolved
	}

	if len(desc.Subcommands) > 0 && len(args) > 0 {
		if sub, ok := desc.Subcommand(strings.ToLower(args[0])); ok {
			inv.Subcommand = sub.Name
			inv.Args.Positional = args[1:]
		}
	}

	return d.run(ctx, desc, inv)
}

// DispatchStructured handles an interaction whose command, subcommand and
// options were already extracted by the transport.
func (d *Dispatcher) DispatchStructured(ctx context.Context, inv *Invocation) Outcome {
	if d.isSelf(inv) {
		return Ignored
	}
	inv.Kind = Structured

	desc, found := d.registry.Lookup(inv.Command)
	if !found {
		d.log.Debug().Str("command", inv.Command).Msg("unknown structured command")
		return Unresolved
	}
	return d.run(ctx, desc, inv)
}

func (d *Dispatcher) isSelf(inv *Invocation) bool {
	if d.selfID == nil {
		return false
	}
	self := d.selfID()
	return self != "" && inv.Actor.ID == self
}

func (d *Dispatcher) run(ctx context.Context, desc *Descriptor, inv *Invocation) Outcome {
	inv.responder = d.responder
	name := inv.QualifiedName()

	logger := d.log.With().
		Str("invocation", inv.ID).
		Str("kind", inv.Kind.String()).
		Str("command", name).
		Str("user", inv.Actor.ID).
		Str("guild", inv.Origin.GuildID).
		Logger()

	if IsExpired(inv, d.responder.now()) {
		d.responder.HandleTimeout(ctx, inv, "guard: expired")
		return Rejected
	}
	if !HasRequiredFields(inv) {
		d.responder.RespondError(ctx, inv, NewError(KindMissingAccess, "guard: required fields", nil), "guard: required fields")
		return Rejected
	}
	if !HasPermissions(inv, desc.Permissions) {
		missing := desc.Permissions &^ inv.Permissions
		label := "guard: permissions (" + strings.Join(DescribePermissions(missing), ", ") + ")"
		d.responder.RespondError(ctx, inv, NewError(KindMissingPermissions, "guard: permissions", nil), label)
		return Rejected
	}

	handler := desc.HandlerFor(inv.Subcommand)
	if handler == nil {
		logger.Debug().Msg("no handler bound for subcommand")
		return Unresolved
	}
	handler = Chain(handler, d.middlewares...)

	start := time.Now()
	err := runSafely("command "+name, func() error {
		return handler.Run(ctx, inv)
	})
	if err != nil {
		d.responder.RespondError(ctx, inv, err, "command: "+name)
		return Failed
	}

	logger.Debug().Dur("took", time.Since(start)).Msg("command handled")
	return Handled
}
