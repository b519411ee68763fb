package pins

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	pinned  []*discordgo.Message
	listErr error
	unpins  []string
}

func (f *fakeSession) ChannelMessagesPinned(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	return f.pinned, f.listErr
}

func (f *fakeSession) ChannelMessageUnpin(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.unpins = append(f.unpins, messageID)
	return nil
}

// pinnedList builds a newest-first pin list of n messages, IDs "1".."n" with
// "1" the newest.
func pinnedList(n int) []*discordgo.Message {
	msgs := make([]*discordgo.Message, n)
	for i := range msgs {
		msgs[i] = &discordgo.Message{ID: fmt.Sprintf("%d", i+1)}
	}
	return msgs
}

func TestEnsureCapacity(t *testing.T) {
	tests := []struct {
		name       string
		pinCount   int
		wantUnpins []string
	}{
		{"empty list is a no-op", 0, nil},
		{"well below margin", 10, nil},
		{"exactly at margin", 48, nil},
		{"one over margin evicts the oldest", 49, []string{"49"}},
		{"at the cap evicts exactly one", 50, []string{"50"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{pinned: pinnedList(tt.pinCount)}
			manager := NewManager(session)

			require.NoError(t, manager.EnsureCapacity("chan"))
			require.Equal(t, tt.wantUnpins, session.unpins)
		})
	}
}

func TestEnsureCapacityListError(t *testing.T) {
	session := &fakeSession{listErr: errors.New("boom")}
	manager := NewManager(session)

	require.Error(t, manager.EnsureCapacity("chan"))
	require.Empty(t, session.unpins)
}
