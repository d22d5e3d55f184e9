package command

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestIsExpired(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"fresh", 0, false},
		{"fourteen minutes", 14 * time.Minute, false},
		{"exactly fifteen minutes", 15 * time.Minute, false},
		{"just past fifteen minutes", 15*time.Minute + time.Millisecond, true},
		{"sixteen minutes", 16 * time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := guildInvocation(nil)
			inv.CreatedAt = fixedNow.Add(-tt.age)
			assert.Equal(t, tt.want, IsExpired(inv, fixedNow))
		})
	}
}

func TestIsExpiredNilInvocation(t *testing.T) {
	assert.False(t, IsExpired(nil, fixedNow))
}

func TestHasRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		actor  string
		origin Origin
		want   bool
	}{
		{"guild origin", "u1", Origin{GuildID: "g1", ChannelID: "c1"}, true},
		{"dm origin", "u1", Origin{ChannelID: "dm1"}, true},
		{"guild only", "u1", Origin{GuildID: "g1"}, true},
		{"no origin", "u1", Origin{}, false},
		{"no actor", "", Origin{GuildID: "g1", ChannelID: "c1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invocation{Actor: Actor{ID: tt.actor}, Origin: tt.origin}
			assert.Equal(t, tt.want, HasRequiredFields(inv))
		})
	}

	assert.False(t, HasRequiredFields(nil))
}

func TestHasPermissions(t *testing.T) {
	manage := int64(discordgo.PermissionManageGuild)
	kick := int64(discordgo.PermissionKickMembers)

	tests := []struct {
		name     string
		inv      *Invocation
		required int64
		want     bool
	}{
		{"empty set in guild", guildInvocation(nil), 0, true},
		{"empty set in dm", dmInvocation(nil), 0, true},
		{"dm ignores actor permissions", dmInvocation(nil), manage, true},
		{"guild actor lacks permission", guildInvocation(nil), manage, false},
		{"guild actor holds permission", func() *Invocation {
			inv := guildInvocation(nil)
			inv.Permissions = manage | kick
			return inv
		}(), manage, true},
		{"guild actor holds only part of the set", func() *Invocation {
			inv := guildInvocation(nil)
			inv.Permissions = kick
			return inv
		}(), manage | kick, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermissions(tt.inv, tt.required))
		})
	}
}

func TestHasPermissionsNilInvocationFailsClosed(t *testing.T) {
	assert.True(t, HasPermissions(nil, 0))
	assert.False(t, HasPermissions(nil, int64(discordgo.PermissionManageGuild)))
}

func TestActorDisplayName(t *testing.T) {
	assert.Equal(t, "Nick", Actor{Nick: "Nick", GlobalName: "Global", Username: "user"}.DisplayName())
	assert.Equal(t, "Global", Actor{GlobalName: "Global", Username: "user"}.DisplayName())
	assert.Equal(t, "user", Actor{Nick: " ", Username: "user"}.DisplayName())
	assert.Equal(t, "Unknown User", Actor{}.DisplayName())
}
