package pins

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	// Discord caps a channel at 50 native pins.
	pinLimit = 50
	// Evict early so a promotion never races the hard cap.
	pinMargin = 2
)

// Session is the subset of discordgo.Session the manager needs.
type Session interface {
	ChannelMessagesPinned(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageUnpin(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Manager keeps a channel's native pin list below the platform cap.
type Manager struct {
	session Session
}

// NewManager creates a pin slot manager on top of a session.
func NewManager(session Session) *Manager {
	return &Manager{session: session}
}

// EnsureCapacity unpins the oldest native pin when the channel is within the
// safety margin of the cap. Discord returns pins newest-first, so the oldest
// entry is the last one. Must run before a new pin is added; short pin lists
// are a no-op.
func (m *Manager) EnsureCapacity(channelID string) error {
	pinned, err := m.session.ChannelMessagesPinned(channelID)
	if err != nil {
		return fmt.Errorf("failed to list pins for channel %s: %w", channelID, err)
	}
	if len(pinned) <= pinLimit-pinMargin {
		return nil
	}

	oldest := pinned[len(pinned)-1]
	if err := m.session.ChannelMessageUnpin(channelID, oldest.ID); err != nil {
		return fmt.Errorf("failed to unpin message %s in channel %s: %w", oldest.ID, channelID, err)
	}
	return nil
}
