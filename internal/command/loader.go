package command

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var nameRe = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

const maxDescriptionLen = 100

// declaration is the on-disk shape of a descriptor.
type declaration struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Permissions []string             `json:"permissions"`
	Handler     string               `json:"handler"`
	Options     []optionDeclaration  `json:"options"`
	Subcommands []subcommandDeclared `json:"subcommands"`
}

type subcommandDeclared struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Handler     string              `json:"handler"`
	Options     []optionDeclaration `json:"options"`
}

type optionDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Choices     []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"choices"`
}

// LoadTree walks root in fsys depth-first and registers every *.json
// declaration it finds, binding handler keys through handlers. A file that
// fails to read, decode, validate or bind is logged and skipped; the walk
// itself never aborts. It returns the number of descriptors registered.
//
// Siblings are visited in lexical order, so when two files declare the same
// name the lexically later one wins.
func LoadTree(reg *Registry, fsys fs.FS, root string, handlers map[string]Handler) int {
	logger := log.With().Str("component", "loader").Str("root", root).Logger()
	loaded := 0

	walkErr := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn().Err(err).Str("path", p).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".json") {
			return nil
		}

		loadErr := runSafely("load "+p, func() error {
			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				return err
			}
			desc, err := ParseDeclaration(data, handlers)
			if err != nil {
				return err
			}
			return reg.Register(desc)
		})
		if loadErr != nil {
			logger.Error().Err(loadErr).Str("path", p).Msg("skipping command declaration")
			return nil
		}

		loaded++
		logger.Debug().Str("path", p).Msg("command declaration loaded")
		return nil
	})
	if walkErr != nil {
		logger.Error().Err(walkErr).Msg("command tree walk stopped")
	}

	logger.Info().Int("count", loaded).Msg("command declarations loaded")
	return loaded
}

// ParseDeclaration decodes and validates one JSON declaration.
func ParseDeclaration(data []byte, handlers map[string]Handler) (*Descriptor, error) {
	var decl declaration
	if err := json.Unmarshal(data, &decl); err != nil {
		return nil, fmt.Errorf("decode declaration: %w", err)
	}

	name := strings.ToLower(strings.TrimSpace(decl.Name))
	if err := validateNamed("command", name, decl.Description); err != nil {
		return nil, err
	}

	perms, err := ParsePermissions(decl.Permissions)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", name, err)
	}

	opts, err := buildOptions(name, decl.Options)
	if err != nil {
		return nil, err
	}

	desc := &Descriptor{
		Name:        name,
		Description: decl.Description,
		Category:    decl.Category,
		Permissions: perms,
		Options:     opts,
	}

	if decl.Handler != "" {
		h, ok := handlers[decl.Handler]
		if !ok || h == nil {
			return nil, fmt.Errorf("command %q: unknown handler %q", name, decl.Handler)
		}
		desc.Handler = h
	}

	seen := make(map[string]bool, len(decl.Subcommands))
	for _, sd := range decl.Subcommands {
		subName := strings.ToLower(strings.TrimSpace(sd.Name))
		if err := validateNamed("subcommand "+name, subName, sd.Description); err != nil {
			return nil, err
		}
		if seen[subName] {
			return nil, fmt.Errorf("command %q: duplicate subcommand %q", name, subName)
		}
		seen[subName] = true

		subOpts, err := buildOptions(name+" "+subName, sd.Options)
		if err != nil {
			return nil, err
		}
		sub := Subcommand{Name: subName, Description: sd.Description, Options: subOpts}
		if sd.Handler != "" {
			h, ok := handlers[sd.Handler]
			if !ok || h == nil {
				return nil, fmt.Errorf("command %q: subcommand %q: unknown handler %q", name, subName, sd.Handler)
			}
			sub.Handler = h
		}
		desc.Subcommands = append(desc.Subcommands, sub)
	}

	if len(desc.Subcommands) > 0 && len(desc.Options) > 0 {
		return nil, fmt.Errorf("command %q: options and subcommands are mutually exclusive", name)
	}
	return desc, nil
}

func buildOptions(owner string, decls []optionDeclaration) ([]Option, error) {
	if len(decls) == 0 {
		return nil, nil
	}
	opts := make([]Option, 0, len(decls))
	optional := false
	for _, od := range decls {
		name := strings.ToLower(strings.TrimSpace(od.Name))
		if err := validateNamed("option of "+owner, name, od.Description); err != nil {
			return nil, err
		}
		typ := OptionType(strings.ToLower(od.Type))
		if !typ.valid() {
			return nil, fmt.Errorf("%s: option %q: unknown type %q", owner, name, od.Type)
		}
		// Required options must come before optional ones.
		if od.Required && optional {
			return nil, fmt.Errorf("%s: required option %q follows an optional one", owner, name)
		}
		optional = optional || !od.Required

		opt := Option{Name: name, Description: od.Description, Type: typ, Required: od.Required}
		if typ == OptionChoice {
			if len(od.Choices) == 0 {
				return nil, fmt.Errorf("%s: choice option %q has no choices", owner, name)
			}
			for _, c := range od.Choices {
				if c.Name == "" || c.Value == "" {
					return nil, fmt.Errorf("%s: choice option %q has an empty choice", owner, name)
				}
				opt.Choices = append(opt.Choices, Choice{Label: c.Name, Value: c.Value})
			}
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

func validateNamed(what, name, description string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%s: invalid name %q", what, name)
	}
	n := len([]rune(description))
	if n == 0 || n > maxDescriptionLen {
		return fmt.Errorf("%s %q: description must be 1-%d characters", what, name, maxDescriptionLen)
	}
	return nil
}
