// Package command holds the transport-agnostic command core: descriptors, the
// registry they live in, the dispatcher that routes invocations to them, the
// guards that gate dispatch and the boundary that turns outcomes into replies.
package command

import "context"

// OptionType is the semantic type of a declared argument.
type OptionType string

const (
	OptionString  OptionType = "string"
	OptionInteger OptionType = "integer"
	OptionBoolean OptionType = "boolean"
	OptionChoice  OptionType = "choice"
)

func (t OptionType) valid() bool {
	switch t {
	case OptionString, OptionInteger, OptionBoolean, OptionChoice:
		return true
	}
	return false
}

// Choice is one accepted value of a choice option with its display label.
type Choice struct {
	Label string
	Value string
}

type Option struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
	Choices     []Choice
}

// Subcommand is a nested name within a parent descriptor. A nil Handler
// falls back to the parent's.
type Subcommand struct {
	Name        string
	Description string
	Options     []Option
	Handler     Handler
}

// Descriptor pairs a command name with its argument schema and handler.
// Descriptors are built once at load time and never mutated afterwards.
type Descriptor struct {
	Name        string
	Description string
	Category    string
	Permissions int64
	Options     []Option
	Subcommands []Subcommand
	Handler     Handler
}

// Subcommand returns the declared subcommand with the given (lowercase) name.
func (d *Descriptor) Subcommand(name string) (*Subcommand, bool) {
	for i := range d.Subcommands {
		if d.Subcommands[i].Name == name {
			return &d.Subcommands[i], true
		}
	}
	return nil, false
}

// HandlerFor resolves the handler for an invocation of the given subcommand.
func (d *Descriptor) HandlerFor(subcommand string) Handler {
	if sub, ok := d.Subcommand(subcommand); ok && sub.Handler != nil {
		return sub.Handler
	}
	return d.Handler
}

// Handler executes a command. The same contract serves slash interactions and
// prefixed text messages; the Invocation tells them apart.
type Handler interface {
	Run(ctx context.Context, inv *Invocation) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

func (f HandlerFunc) Run(ctx context.Context, inv *Invocation) error { return f(ctx, inv) }

// Middleware wraps a handler (logging, history, metrics).
type Middleware func(Handler) Handler

// Chain applies middlewares in order; the first in the list is the outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
