package discord

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/keshon/tavern-bot/internal/command"
	"github.com/keshon/tavern-bot/internal/storage"
	"github.com/keshon/tavern-bot/pkg/retrylimit"
)

// syncConcurrency caps parallel create calls per guild.
const syncConcurrency = 4

// restStatus reads the HTTP status out of a discordgo REST error.
func restStatus(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}

// permanent stops retries for failures a resend cannot fix. A response that
// does not decode means the request already went through.
func permanent(err error) error {
	if errors.Is(err, discordgo.ErrJSONUnmarshal) {
		return retrylimit.Fatal(err)
	}
	return err
}

// SyncResult summarizes one guild sync.
type SyncResult struct {
	Deleted   []string
	Upserted  []string
	Unchanged int
}

// Syncer keeps a guild's slash commands in line with the registry. Hashes of
// what was last pushed live in storage so unchanged commands are skipped.
type Syncer struct {
	rest    REST
	store   *storage.Storage
	reg     *command.Registry
	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.Config
	log     zerolog.Logger
}

func NewSyncer(rest REST, store *storage.Storage, reg *command.Registry) *Syncer {
	cfg := retrylimit.DefaultConfig()
	cfg.Status = restStatus
	return &Syncer{
		rest:    rest,
		store:   store,
		reg:     reg,
		limiter: retrylimit.NewAdaptiveLimiter(rate.Limit(5), rate.Limit(0.5), rate.Limit(20), rate.Limit(0.5), 0.5),
		retry:   cfg,
		log:     log.With().Str("component", "sync").Logger(),
	}
}

// Sync deletes remote commands that are no longer registered, then creates
// or overwrites every command whose hash changed or that is missing remotely.
func (s *Syncer) Sync(ctx context.Context, appID, guildID string) (SyncResult, error) {
	var res SyncResult
	logger := s.log.With().Str("guild", guildID).Logger()

	var remote []*discordgo.ApplicationCommand
	err := retrylimit.Do(ctx, s.limiter, s.retry, func() error {
		var err error
		remote, err = s.rest.ApplicationCommands(appID, guildID, discordgo.WithContext(ctx))
		return permanent(err)
	})
	if err != nil {
		return res, fmt.Errorf("fetch commands for %s: %w", guildID, err)
	}
	remoteByName := make(map[string]*discordgo.ApplicationCommand, len(remote))
	for _, c := range remote {
		remoteByName[c.Name] = c
	}

	cached, err := s.store.CommandHashes(ctx, guildID)
	if err != nil {
		logger.Warn().Err(err).Msg("command hashes unavailable, pushing everything")
		cached = map[string]string{}
	}

	wanted := Definitions(s.reg)
	wantedHashes := make(map[string]string, len(wanted))
	for _, def := range wanted {
		wantedHashes[def.Name] = hashCommand(def)
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	for name, rc := range remoteByName {
		if _, ok := wantedHashes[name]; ok {
			continue
		}
		logger.Info().Str("command", name).Msg("deleting obsolete command")
		err := retrylimit.Do(ctx, s.limiter, s.retry, func() error {
			return s.rest.ApplicationCommandDelete(appID, guildID, rc.ID, discordgo.WithContext(ctx))
		})
		if err != nil {
			logger.Error().Err(err).Str("command", name).Msg("failed to delete command")
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
			continue
		}
		delete(cached, name)
		res.Deleted = append(res.Deleted, name)
	}

	// Decide everything up front; workers only touch pushed and errs.
	var pending []*discordgo.ApplicationCommand
	for _, def := range wanted {
		_, exists := remoteByName[def.Name]
		if exists && cached[def.Name] == wantedHashes[def.Name] {
			res.Unchanged++
			continue
		}
		pending = append(pending, def)
	}

	pushed := make(map[string]string, len(pending))
	p := pool.New().WithMaxGoroutines(syncConcurrency)
	for _, def := range pending {
		p.Go(func() {
			err := retrylimit.Do(ctx, s.limiter, s.retry, func() error {
				_, err := s.rest.ApplicationCommandCreate(appID, guildID, def, discordgo.WithContext(ctx))
				return permanent(err)
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error().Err(err).Str("command", def.Name).Msg("failed to register command")
				errs = append(errs, fmt.Errorf("register %s: %w", def.Name, err))
				return
			}
			pushed[def.Name] = wantedHashes[def.Name]
		})
	}
	p.Wait()

	for name, h := range pushed {
		cached[name] = h
		res.Upserted = append(res.Upserted, name)
	}
	slices.Sort(res.Upserted)

	if err := s.store.SaveCommandHashes(ctx, guildID, cached); err != nil {
		logger.Warn().Err(err).Msg("failed to save command hashes")
	}

	event := logger.Info().
		Int("deleted", len(res.Deleted)).
		Int("upserted", len(res.Upserted)).
		Int("unchanged", res.Unchanged)
	if s.limiter != nil {
		event = event.Float64("rate", s.limiter.CurrentLimit())
	}
	event.Msg("commands synced")
	return res, errors.Join(errs...)
}
