// cmd/discord/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keshon/tavern-bot/internal/command"
	"github.com/keshon/tavern-bot/internal/commands"
	"github.com/keshon/tavern-bot/internal/config"
	"github.com/keshon/tavern-bot/internal/discord"
	"github.com/keshon/tavern-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().Str("app", commands.AppName).Msg("starting bot")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(ctx, storage.Options{
		Backend:       cfg.StorageBackend,
		Path:          cfg.StoragePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	reg := command.NewRegistry()
	bot := discord.NewBot(cfg, store, reg,
		commands.WithExecutionLog(),
		commands.WithGuildOnly("admin"),
		commands.WithCommandHistory(store, nil),
	)
	n := commands.Load(reg, commands.Deps{
		Store:     store,
		Jobs:      bot,
		StartedAt: time.Now(),
	}, cfg.CommandsDir)
	log.Info().Int("commands", n).Msg("command tree loaded")

	runErr := bot.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error().Err(runErr).Msg("discord bot error")
	}

	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close storage")
	}
	if runErr != nil {
		os.Exit(1)
	}
	log.Info().Msg("discord bot exited cleanly")
}
