// Package commands binds the declared command tree to handlers.
package commands

import (
	"embed"
	"io/fs"
	"os"
	"time"

	"github.com/keshon/tavern-bot/internal/command"
	"github.com/keshon/tavern-bot/internal/storage"
)

const (
	AppName    = "Tavern"
	EmbedColor = 0xb01e66
)

// Handler keys used by declarations.
const (
	KeyPlaceholder = "placeholder"
	KeyPing        = "ping"
	KeyHelp        = "help"
	KeyDBStatus    = "db-status"
	KeyHistory     = "history"
	KeyProfile     = "profile"
)

//go:embed defs
var Definitions embed.FS

// JobStatus summarises background jobs for humans.
type JobStatus interface {
	Status() string
}

// Deps are the services handlers need. Jobs may be nil.
type Deps struct {
	Store     *storage.Storage
	Registry  *command.Registry
	Jobs      JobStatus
	StartedAt time.Time
	Now       func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// Handlers returns the handler table declarations bind against.
func Handlers(d Deps) map[string]command.Handler {
	return map[string]command.Handler{
		KeyPlaceholder: command.HandlerFunc(placeholder),
		KeyPing:        &pingHandler{deps: d},
		KeyHelp:        &helpHandler{deps: d},
		KeyDBStatus:    &dbStatusHandler{deps: d},
		KeyHistory:     &historyHandler{deps: d},
		KeyProfile:     &profileHandler{deps: d},
	}
}

// Load registers the declarations from dir, or the embedded set when dir is
// empty, and returns how many were registered.
func Load(reg *command.Registry, d Deps, dir string) int {
	var (
		fsys fs.FS = Definitions
		root       = "defs"
	)
	if dir != "" {
		fsys, root = os.DirFS(dir), "."
	}
	if d.Registry == nil {
		d.Registry = reg
	}
	return command.LoadTree(reg, fsys, root, Handlers(d))
}
