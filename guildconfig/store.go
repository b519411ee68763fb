package guildconfig

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"pin-archive-bot/models"
)

// Config keys understood by the store.
const (
	KeyArchiveChannel = "archive_channel"
	KeyWebhookURL     = "webhook_url"
	KeyReactionCount  = "reaction_count"
)

// DefaultReactionCount is the pin threshold used when a guild has not set one.
const DefaultReactionCount = 7

// schema maps each known key to the value kind it accepts. Writes for unknown
// keys or mismatched kinds are rejected at the store boundary.
var schema = map[string]models.ValueKind{
	KeyArchiveChannel: models.KindChannel,
	KeyWebhookURL:     models.KindURL,
	KeyReactionCount:  models.KindInt,
}

type cacheKey struct {
	guildID string
	key     string
}

// Store is the per-guild key-value config store. Values are persisted as one
// file per (guild, key) pair under root/{guildID}/{key}, with a process-local
// cache in front. The cache never holds "absent" results, so a key written by
// another process is picked up on the next miss.
type Store struct {
	root string

	mu    sync.Mutex
	cache map[cacheKey]models.Value
}

// NewStore creates a store rooted at the given config directory.
func NewStore(root string) *Store {
	return &Store{
		root:  root,
		cache: make(map[cacheKey]models.Value),
	}
}

// Read returns the value for a guild's key. The second return is false when
// the key has never been written for this guild.
func (s *Store) Read(guildID, key string) (models.Value, bool, error) {
	s.mu.Lock()
	if v, ok := s.cache[cacheKey{guildID, key}]; ok {
		s.mu.Unlock()
		return v, true, nil
	}
	s.mu.Unlock()

	data, err := os.ReadFile(s.path(guildID, key))
	if os.IsNotExist(err) {
		return models.Value{}, false, nil
	}
	if err != nil {
		return models.Value{}, false, fmt.Errorf("failed to read config %s/%s: %w", guildID, key, err)
	}

	v, err := models.UnmarshalValue(data)
	if err != nil {
		return models.Value{}, false, fmt.Errorf("corrupt config %s/%s: %w", guildID, key, err)
	}

	s.mu.Lock()
	s.cache[cacheKey{guildID, key}] = v
	s.mu.Unlock()
	return v, true, nil
}

// Write validates and persists a value, then updates the cache. A failed
// persist leaves the cache untouched so it never diverges from durable state.
func (s *Store) Write(guildID, key string, v models.Value) error {
	kind, ok := schema[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if v.Kind != kind {
		return fmt.Errorf("config key %q expects a %s value, got %s", key, kind, v.Kind)
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("invalid value for config key %q: %w", key, err)
	}
	if key == KeyReactionCount && v.Int < 1 {
		return fmt.Errorf("reaction count must be at least 1, got %d", v.Int)
	}

	dir := filepath.Join(s.root, guildID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	data, err := v.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode config %s/%s: %w", guildID, key, err)
	}

	log.Printf("Saving config %s %s %s", s.root, guildID, key)
	if err := os.WriteFile(s.path(guildID, key), data, 0644); err != nil {
		return fmt.Errorf("failed to persist config %s/%s: %w", guildID, key, err)
	}

	s.mu.Lock()
	s.cache[cacheKey{guildID, key}] = v
	s.mu.Unlock()
	return nil
}

func (s *Store) path(guildID, key string) string {
	return filepath.Join(s.root, guildID, key)
}

// ArchiveChannel returns the guild's archive channel ID, if configured.
func (s *Store) ArchiveChannel(guildID string) (string, bool, error) {
	v, ok, err := s.Read(guildID, KeyArchiveChannel)
	if err != nil || !ok {
		return "", false, err
	}
	return v.Str, true, nil
}

// SetArchiveChannel sets the guild's archive channel.
func (s *Store) SetArchiveChannel(guildID, channelID string) error {
	return s.Write(guildID, KeyArchiveChannel, models.ChannelValue(channelID))
}

// WebhookURL returns the guild's archive webhook URL, if one was created.
func (s *Store) WebhookURL(guildID string) (string, bool, error) {
	v, ok, err := s.Read(guildID, KeyWebhookURL)
	if err != nil || !ok {
		return "", false, err
	}
	return v.Str, true, nil
}

// SetWebhookURL sets the guild's archive webhook URL.
func (s *Store) SetWebhookURL(guildID, url string) error {
	return s.Write(guildID, KeyWebhookURL, models.URLValue(url))
}

// ReactionCount returns the guild's pin threshold, falling back to the default.
func (s *Store) ReactionCount(guildID string) (int64, error) {
	v, ok, err := s.Read(guildID, KeyReactionCount)
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultReactionCount, nil
	}
	return v.Int, nil
}

// SetReactionCount sets the guild's pin threshold.
func (s *Store) SetReactionCount(guildID string, count int64) error {
	return s.Write(guildID, KeyReactionCount, models.IntValue(count))
}
