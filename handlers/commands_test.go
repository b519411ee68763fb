package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChannelRef(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		wantID string
		wantOK bool
	}{
		{"mention", "<#123456789>", "123456789", true},
		{"bare id", "123456789", "123456789", true},
		{"words", "general", "", false},
		{"empty", "", "", false},
		{"empty mention", "<#>", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseChannelRef(tt.ref)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantID, id)
		})
	}
}

func TestParseMessageRef(t *testing.T) {
	tests := []struct {
		name        string
		ref         string
		wantChannel string
		wantMessage string
		wantOK      bool
	}{
		{"message link", "https://discord.com/channels/1/2/3", "2", "3", true},
		{"legacy link", "https://discordapp.com/channels/1/2/3", "2", "3", true},
		{"channel-message pair", "22-33", "22", "33", true},
		{"bare id uses current channel", "33", "99", "33", true},
		{"garbage", "not-a-ref", "", "", false},
		{"short link", "https://discord.com/channels/1/2", "", "", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			channelID, messageID, ok := parseMessageRef(tt.ref, "99")
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantChannel, channelID)
			require.Equal(t, tt.wantMessage, messageID)
		})
	}
}
