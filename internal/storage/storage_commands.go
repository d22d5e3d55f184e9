package storage

import (
	"context"
	"time"
)

const (
	commandHistoryKey   = "command_history"
	commandHistoryLimit = 50
	commandHashesPrefix = "command_hashes:"
)

type CommandHistory struct {
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Source    string    `json:"source"`
	Datetime  time.Time `json:"datetime"`
}

// AppendCommandHistory records an executed command, keeping the newest entries only.
func (s *Storage) AppendCommandHistory(ctx context.Context, rec CommandHistory) error {
	defer s.lock(commandHistoryKey)()

	history, err := s.CommandHistory(ctx)
	if err != nil {
		return err
	}

	history = append(history, rec)
	if len(history) > commandHistoryLimit {
		history = history[len(history)-commandHistoryLimit:]
	}
	return s.setJSON(ctx, commandHistoryKey, history)
}

// CommandHistory returns recorded commands, oldest first.
func (s *Storage) CommandHistory(ctx context.Context) ([]CommandHistory, error) {
	var history []CommandHistory
	if _, err := s.getJSON(ctx, commandHistoryKey, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// CommandHashes returns the cached definition hashes registered for a guild.
func (s *Storage) CommandHashes(ctx context.Context, guildID string) (map[string]string, error) {
	hashes := map[string]string{}
	if _, err := s.getJSON(ctx, commandHashesPrefix+guildID, &hashes); err != nil {
		return nil, err
	}
	return hashes, nil
}

func (s *Storage) SaveCommandHashes(ctx context.Context, guildID string, hashes map[string]string) error {
	return s.setJSON(ctx, commandHashesPrefix+guildID, hashes)
}
