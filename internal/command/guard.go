package command

import (
	"time"

	"github.com/rs/zerolog/log"
)

// InvocationTTL is how long an inbound event may still be answered.
// An invocation exactly InvocationTTL old is not yet expired.
const InvocationTTL = 15 * time.Minute

// IsExpired reports whether inv is older than InvocationTTL at now.
func IsExpired(inv *Invocation, now time.Time) (expired bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("expiry guard panicked")
			expired = false
		}
	}()
	return now.Sub(inv.CreatedAt) > InvocationTTL
}

// HasRequiredFields requires an actor id and at least one origin kind.
func HasRequiredFields(inv *Invocation) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("required-fields guard panicked")
			ok = false
		}
	}()
	if inv.Actor.ID == "" {
		return false
	}
	return inv.Origin.GuildID != "" || inv.Origin.ChannelID != ""
}

// HasPermissions requires every bit of required on the actor's resolved
// permissions. An empty set always passes. Direct messages always pass too:
// there is no member or role to check there, so commands that must stay
// guild-only need a guard of their own.
func HasPermissions(inv *Invocation, required int64) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("permission guard panicked")
			ok = false
		}
	}()
	if required == 0 {
		return true
	}
	if inv.Origin.IsDM() {
		return true
	}
	return inv.Permissions&required == required
}
