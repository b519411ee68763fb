package guildconfig

import (
	"os"
	"path/filepath"
	"testing"

	"pin-archive-bot/models"

	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.SetArchiveChannel("100", "200"))
	require.NoError(t, store.SetReactionCount("100", 3))
	require.NoError(t, store.SetWebhookURL("100", "https://discord.com/api/webhooks/1/abc"))

	channel, ok, err := store.ArchiveChannel("100")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "200", channel)

	count, err := store.ReactionCount("100")
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	url, ok, err := store.WebhookURL("100")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "https://discord.com/api/webhooks/1/abc", url)
}

func TestReadAfterCacheEviction(t *testing.T) {
	root := t.TempDir()

	store := NewStore(root)
	require.NoError(t, store.SetReactionCount("100", 5))

	// A fresh store has an empty cache, so this read must reconsult the
	// persisted files and still match.
	evicted := NewStore(root)
	count, err := evicted.ReactionCount("100")
	require.NoError(t, err)
	require.Equal(t, int64(5), count)
}

func TestAbsenceIsNotCached(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	_, ok, err := store.ArchiveChannel("100")
	require.NoError(t, err)
	require.False(t, ok)

	// Simulate another process writing the key after the miss.
	other := NewStore(root)
	require.NoError(t, other.SetArchiveChannel("100", "200"))

	channel, ok, err := store.ArchiveChannel("100")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "200", channel)
}

func TestDefaultReactionCount(t *testing.T) {
	store := NewStore(t.TempDir())

	count, err := store.ReactionCount("999")
	require.NoError(t, err)
	require.Equal(t, int64(DefaultReactionCount), count)
	require.Equal(t, int64(7), count)
}

func TestWriteValidation(t *testing.T) {
	store := NewStore(t.TempDir())

	tests := []struct {
		name  string
		key   string
		value models.Value
	}{
		{"unknown key", "favorite_color", models.IntValue(1)},
		{"kind mismatch", KeyReactionCount, models.URLValue("https://example.com")},
		{"threshold below one", KeyReactionCount, models.IntValue(0)},
		{"non-snowflake channel", KeyArchiveChannel, models.ChannelValue("not-an-id")},
		{"non-http webhook", KeyWebhookURL, models.URLValue("ftp://example.com/hook")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, store.Write("100", tt.key, tt.value))
		})
	}
}

func TestCorruptFileIsAnError(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "100"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "100", KeyReactionCount), []byte("not json"), 0644))

	_, _, err := store.Read("100", KeyReactionCount)
	require.Error(t, err)
}

func TestPersistedLayout(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.SetReactionCount("42", 9))

	// One opaque blob per (guild, key) pair at root/guildID/key.
	_, err := os.Stat(filepath.Join(root, "42", KeyReactionCount))
	require.NoError(t, err)
}
