package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/keshon/tavern-bot/internal/command"
	"github.com/keshon/tavern-bot/internal/commands"
	"github.com/keshon/tavern-bot/internal/config"
	"github.com/keshon/tavern-bot/internal/docs"
)

func main() {
	var (
		dir  = flag.String("commands", "", "declaration directory; empty uses the embedded set")
		tmpl = flag.String("template", "README.md.tmpl", "readme template")
		out  = flag.String("out", "README.md", "output path")
	)
	flag.Parse()

	reg := command.NewRegistry()
	commands.Load(reg, commands.Deps{}, *dir)

	if err := docs.UpdateReadme(reg, config.CategoryWeight, *tmpl, *out); err != nil {
		log.Fatal().Err(err).Msg("failed to update readme")
	}
}
