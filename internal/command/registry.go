package command

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyName = errors.New("command name is empty")
	ErrNoHandler = errors.New("command has no handler")
)

// Registry maps lowercase command names to descriptors. It is filled during
// startup and only read once the bot starts listening.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Descriptor)}
}

// Register stores d under its lowercased name. Registering a name twice keeps
// the later descriptor and logs a warning.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil || strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if d.Handler == nil && !allSubcommandsBound(d) {
		return ErrNoHandler
	}

	name := strings.ToLower(d.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		log.Warn().Str("command", name).Msg("duplicate command name, later descriptor wins")
	}
	r.entries[name] = d
	return nil
}

// Lookup finds a descriptor by name, ignoring case.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[strings.ToLower(name)]
	return d, ok
}

// All returns every descriptor sorted by name.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Descriptor, 0, len(r.entries))
	for _, d := range r.entries {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func allSubcommandsBound(d *Descriptor) bool {
	if len(d.Subcommands) == 0 {
		return false
	}
	for _, sub := range d.Subcommands {
		if sub.Handler == nil {
			return false
		}
	}
	return true
}
