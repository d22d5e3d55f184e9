package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keshon/tavern-bot/internal/command"
	"github.com/keshon/tavern-bot/internal/commands"
	"github.com/keshon/tavern-bot/internal/config"
	"github.com/keshon/tavern-bot/internal/console"
	"github.com/keshon/tavern-bot/internal/storage"
)

func main() {
	var (
		backend = flag.String("storage", storage.BackendMemory, "storage backend: memory, file or redis")
		user    = flag.String("user", "console", "user id and name to act as")
		guild   = flag.String("guild", "console-guild", "guild id; empty acts like a direct message")
		admin   = flag.Bool("admin", false, "grant every permission")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	store, err := storage.Open(ctx, storage.Options{
		Backend:       *backend,
		Path:          cfg.StoragePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	reg := command.NewRegistry()
	commands.Load(reg, commands.Deps{Store: store, StartedAt: time.Now()}, cfg.CommandsDir)

	disp := command.NewDispatcher(reg,
		command.WithPrefix(cfg.CommandPrefix),
		command.WithMiddleware(commands.WithGuildOnly("admin"), commands.WithCommandHistory(store, nil)),
	)

	session := console.Session{
		UserID:    *user,
		Username:  *user,
		GuildID:   *guild,
		ChannelID: "console",
	}
	if *admin {
		session.Permissions = ^int64(0)
	}

	if err := console.Run(ctx, disp, session, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("console stopped")
	}
}
