package command

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ────────────────────────────────────────────────────────────────
// PERMISSION NAME MAPS
// ────────────────────────────────────────────────────────────────

// permissionFlags maps the Discord API flag names used in declarations to bits.
var permissionFlags = map[string]int64{
	"CREATE_INSTANT_INVITE":    discordgo.PermissionCreateInstantInvite,
	"KICK_MEMBERS":             discordgo.PermissionKickMembers,
	"BAN_MEMBERS":              discordgo.PermissionBanMembers,
	"ADMINISTRATOR":            discordgo.PermissionAdministrator,
	"MANAGE_CHANNELS":          discordgo.PermissionManageChannels,
	"MANAGE_GUILD":             discordgo.PermissionManageGuild,
	"ADD_REACTIONS":            discordgo.PermissionAddReactions,
	"VIEW_AUDIT_LOG":           discordgo.PermissionViewAuditLogs,
	"VIEW_CHANNEL":             discordgo.PermissionViewChannel,
	"SEND_MESSAGES":            discordgo.PermissionSendMessages,
	"MANAGE_MESSAGES":          discordgo.PermissionManageMessages,
	"EMBED_LINKS":              discordgo.PermissionEmbedLinks,
	"ATTACH_FILES":             discordgo.PermissionAttachFiles,
	"READ_MESSAGE_HISTORY":     discordgo.PermissionReadMessageHistory,
	"MENTION_EVERYONE":         discordgo.PermissionMentionEveryone,
	"USE_APPLICATION_COMMANDS": discordgo.PermissionUseApplicationCommands,
	"MANAGE_THREADS":           discordgo.PermissionManageThreads,
	"MANAGE_NICKNAMES":         discordgo.PermissionManageNicknames,
	"MANAGE_ROLES":             discordgo.PermissionManageRoles,
	"MANAGE_WEBHOOKS":          discordgo.PermissionManageWebhooks,
	"MANAGE_EVENTS":            discordgo.PermissionManageEvents,
	"MODERATE_MEMBERS":         discordgo.PermissionModerateMembers,
}

// PermissionNames holds human-readable names for user-facing messages.
var PermissionNames = map[int64]string{
	discordgo.PermissionCreateInstantInvite:    "Create Instant Invite",
	discordgo.PermissionKickMembers:            "Kick Members",
	discordgo.PermissionBanMembers:             "Ban Members",
	discordgo.PermissionAdministrator:          "Administrator",
	discordgo.PermissionManageChannels:         "Manage Channels",
	discordgo.PermissionManageGuild:            "Manage Server",
	discordgo.PermissionAddReactions:           "Add Reactions",
	discordgo.PermissionViewAuditLogs:          "View Audit Logs",
	discordgo.PermissionViewChannel:            "View Channel",
	discordgo.PermissionSendMessages:           "Send Messages",
	discordgo.PermissionManageMessages:         "Manage Messages",
	discordgo.PermissionEmbedLinks:             "Embed Links",
	discordgo.PermissionAttachFiles:            "Attach Files",
	discordgo.PermissionReadMessageHistory:     "Read Message History",
	discordgo.PermissionMentionEveryone:        "Mention Everyone",
	discordgo.PermissionUseApplicationCommands: "Use Application Commands",
	discordgo.PermissionManageThreads:          "Manage Threads",
	discordgo.PermissionManageNicknames:        "Manage Nicknames",
	discordgo.PermissionManageRoles:            "Manage Roles",
	discordgo.PermissionManageWebhooks:         "Manage Webhooks",
	discordgo.PermissionManageEvents:           "Manage Events",
	discordgo.PermissionModerateMembers:        "Moderate Members",
}

// ParsePermissions folds declared flag names into a bitset.
func ParsePermissions(names []string) (int64, error) {
	var set int64
	for _, n := range names {
		bit, ok := permissionFlags[strings.ToUpper(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown permission %q", n)
		}
		set |= bit
	}
	return set, nil
}

// DescribePermissions lists the names of every bit in set, lowest bit first.
func DescribePermissions(set int64) []string {
	var out []string
	for set != 0 {
		bit := int64(1) << bits.TrailingZeros64(uint64(set))
		set &^= bit
		name := PermissionNames[bit]
		if name == "" {
			name = fmt.Sprintf("0x%x", bit)
		}
		out = append(out, name)
	}
	return out
}
