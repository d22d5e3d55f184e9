package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keshon/tavern-bot/internal/command"
	"github.com/keshon/tavern-bot/internal/config"
	"github.com/keshon/tavern-bot/internal/storage"
	"github.com/keshon/tavern-bot/pkg/jobmgr"
)

// Bot adapts a Discord gateway session to the command dispatcher.
type Bot struct {
	cfg   *config.Config
	store *storage.Storage
	reg   *command.Registry
	disp  *command.Dispatcher

	rest   REST
	syncer *Syncer
	jobs   *jobmgr.Manager

	mu     sync.RWMutex
	selfID string

	log zerolog.Logger
}

// NewBot wires a dispatcher over reg. mws wrap every handler, outermost first.
func NewBot(cfg *config.Config, store *storage.Storage, reg *command.Registry, mws ...command.Middleware) *Bot {
	b := &Bot{
		cfg:   cfg,
		store: store,
		reg:   reg,
		log:   log.With().Str("component", "discord").Logger(),
	}
	b.disp = command.NewDispatcher(reg,
		command.WithPrefix(cfg.CommandPrefix),
		command.WithSelfID(b.SelfID),
		command.WithMiddleware(mws...),
	)
	return b
}

// SelfID is the bot's own user ID, empty until the gateway is ready.
func (b *Bot) SelfID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selfID
}

func (b *Bot) setSelfID(id string) {
	b.mu.Lock()
	b.selfID = id
	b.mu.Unlock()
}

// attach binds the REST client and starts the job manager under ctx.
func (b *Bot) attach(ctx context.Context, rest REST) {
	b.rest = rest
	b.syncer = NewSyncer(rest, b.store, b.reg)

	b.mu.Lock()
	b.jobs = jobmgr.NewManager(ctx, b.reportJob)
	b.mu.Unlock()
}

// Status summarises running background jobs.
func (b *Bot) Status() string {
	b.mu.RLock()
	jobs := b.jobs
	b.mu.RUnlock()
	if jobs == nil {
		return "Gateway not connected."
	}
	return jobs.Status()
}

func syncJob(guildID string) string { return "sync:" + guildID }

// Run opens the gateway and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.attach(ctx, dg)

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) { b.onReady(ctx, r) })
	dg.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) { b.onGuildCreate(ctx, g) })
	dg.AddHandler(func(s *discordgo.Session, g *discordgo.GuildDelete) { b.onGuildDelete(g) })
	dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) { b.onInteractionCreate(ctx, i) })
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) { b.onMessageCreate(ctx, m) })

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	b.log.Info().Int("commands", b.reg.Len()).Str("prefix", b.cfg.CommandPrefix).Msg("bot is online")

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, cleaning up")

	b.jobs.Shutdown()
	if err := dg.Close(); err != nil {
		return fmt.Errorf("failed to close Discord session: %w", err)
	}
	return nil
}

func (b *Bot) reportJob(e jobmgr.Event) {
	if e.Err != nil {
		b.log.Error().Err(e.Err).Str("job", e.Job).Msg("job failed")
		return
	}
	b.log.Debug().Str("job", e.Job).Str("state", e.State).Msg("job")
}

func (b *Bot) onReady(ctx context.Context, r *discordgo.Ready) {
	if r.User != nil {
		b.setSelfID(r.User.ID)
		b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway ready")
	}
	for _, g := range r.Guilds {
		b.joinGuild(ctx, g.ID)
	}
}

func (b *Bot) onGuildCreate(ctx context.Context, g *discordgo.GuildCreate) {
	if g.Guild == nil {
		return
	}
	b.joinGuild(ctx, g.ID)
}

// onGuildDelete cancels a sync still running for a guild the bot left or
// lost during an outage.
func (b *Bot) onGuildDelete(g *discordgo.GuildDelete) {
	if g.Guild == nil {
		return
	}
	if err := b.jobs.Stop(syncJob(g.ID)); err != nil {
		return
	}
	b.log.Info().Str("guild", g.ID).Bool("unavailable", g.Unavailable).Msg("command sync cancelled")
}

// joinGuild leaves blacklisted guilds and schedules a command sync for the rest.
func (b *Bot) joinGuild(ctx context.Context, guildID string) {
	if b.cfg.IsGuildBlacklisted(guildID) {
		b.log.Info().Str("guild", guildID).Msg("leaving blacklisted guild")
		if err := b.rest.GuildLeave(guildID, discordgo.WithContext(ctx)); err != nil {
			b.log.Error().Err(err).Str("guild", guildID).Msg("failed to leave guild")
		}
		return
	}
	if !b.cfg.InitSlashCommands {
		return
	}

	appID := b.SelfID()
	err := b.jobs.Start(syncJob(guildID), func(ctx context.Context) error {
		_, err := b.syncer.Sync(ctx, appID, guildID)
		return err
	})
	if err != nil {
		b.log.Debug().Err(err).Str("guild", guildID).Msg("command sync not started")
	}
}

func (b *Bot) onInteractionCreate(ctx context.Context, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	inv := structuredInvocation(b.rest, i)
	b.disp.DispatchStructured(ctx, inv)
}

func (b *Bot) onMessageCreate(ctx context.Context, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if _, _, ok := command.ParseText(b.cfg.CommandPrefix, m.Content); !ok {
		return
	}

	var perms int64
	if m.GuildID != "" {
		p, err := b.rest.UserChannelPermissions(m.Author.ID, m.ChannelID, discordgo.WithContext(ctx))
		if err != nil {
			b.log.Warn().Err(err).Str("user", m.Author.ID).Str("channel", m.ChannelID).Msg("failed to resolve permissions")
		} else {
			perms = p
		}
	}

	inv := textInvocation(b.rest, m, perms)
	b.disp.DispatchText(ctx, inv, m.Content)
}
