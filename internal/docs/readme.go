// Package docs renders the command reference from the registry.
package docs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/rs/zerolog/log"

	"github.com/keshon/tavern-bot/internal/command"
)

// Weight orders categories; lower comes first.
type Weight func(category string) int

// CommandSections writes one markdown section per category, commands sorted
// by name within each.
func CommandSections(w io.Writer, reg *command.Registry, weight Weight) error {
	all := reg.All()
	sort.SliceStable(all, func(i, j int) bool {
		wi, wj := weight(all[i].Category), weight(all[j].Category)
		if wi != wj {
			return wi < wj
		}
		if all[i].Category != all[j].Category {
			return all[i].Category < all[j].Category
		}
		return all[i].Name < all[j].Name
	})

	var buf bytes.Buffer
	current := "\x00"
	for _, d := range all {
		if d.Category != current {
			if current != "\x00" {
				buf.WriteString("\n")
			}
			current = d.Category
			cat := current
			if cat == "" {
				cat = "Other"
			}
			fmt.Fprintf(&buf, "### %s\n\n", cat)
		}

		fmt.Fprintf(&buf, "- **/%s** %s", d.Name, d.Description)
		if d.Permissions != 0 {
			fmt.Fprintf(&buf, " _(requires %s)_", strings.Join(command.DescribePermissions(d.Permissions), ", "))
		}
		buf.WriteString("\n")
		for _, sub := range d.Subcommands {
			fmt.Fprintf(&buf, "  - `/%s %s` %s\n", d.Name, sub.Name, sub.Description)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// UpdateReadme executes the template at tmplPath with the rendered sections
// as .CommandSections and writes the result to outPath.
func UpdateReadme(reg *command.Registry, weight Weight, tmplPath, outPath string) error {
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	var sections bytes.Buffer
	if err := CommandSections(&sections, reg, weight); err != nil {
		return err
	}

	var out bytes.Buffer
	data := struct {
		CommandSections string
	}{
		CommandSections: sections.String(),
	}
	if err := tmpl.Execute(&out, data); err != nil {
		return fmt.Errorf("render readme: %w", err)
	}
	if err := os.WriteFile(outPath, out.Bytes(), 0o644); err != nil {
		return err
	}

	log.Info().Str("path", outPath).Int("commands", reg.Len()).Msg("readme updated")
	return nil
}
