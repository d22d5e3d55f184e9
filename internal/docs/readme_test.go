package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/tavern-bot/internal/command"
)

var noop = command.HandlerFunc(func(context.Context, *command.Invocation) error { return nil })

func testRegistry(t *testing.T) *command.Registry {
	t.Helper()
	reg := command.NewRegistry()
	for _, d := range []*command.Descriptor{
		{Name: "ping", Description: "Check latency", Category: "info", Handler: noop},
		{Name: "help", Description: "List commands", Category: "info", Handler: noop},
		{Name: "admin", Description: "Administration", Category: "admin", Permissions: discordgo.PermissionManageGuild, Handler: noop,
			Subcommands: []command.Subcommand{{Name: "status", Description: "Storage status"}}},
		{Name: "misc", Description: "Uncategorized", Handler: noop},
	} {
		require.NoError(t, reg.Register(d))
	}
	return reg
}

func weights(cat string) int {
	switch cat {
	case "info":
		return 1
	case "admin":
		return 2
	}
	return 100
}

func TestCommandSections(t *testing.T) {
	var b strings.Builder
	require.NoError(t, CommandSections(&b, testRegistry(t), weights))

	want := "### info\n\n" +
		"- **/help** List commands\n" +
		"- **/ping** Check latency\n" +
		"\n### admin\n\n" +
		"- **/admin** Administration _(requires Manage Server)_\n" +
		"  - `/admin status` Storage status\n" +
		"\n### Other\n\n" +
		"- **/misc** Uncategorized\n"
	assert.Equal(t, want, b.String())
}

func TestUpdateReadme(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "README.md.tmpl")
	out := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(tmpl, []byte("# Tavern\n\n{{.CommandSections}}"), 0o644))

	require.NoError(t, UpdateReadme(testRegistry(t), weights, tmpl, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Tavern\n\n### info\n"))

	assert.Error(t, UpdateReadme(testRegistry(t), weights, filepath.Join(dir, "missing.tmpl"), out))
}
