package handlers

import (
	"strings"

	"pin-archive-bot/bot"
	"pin-archive-bot/config"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// MessageCreate dispatches prefix commands and watches for the system message
// Discord posts when a message is pinned.
func MessageCreate(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.GuildID == "" {
			return
		}

		// The pins-add system message is a second trigger path: someone
		// (possibly a moderator, bypassing the reaction threshold) pinned
		// a message.
		if m.Type == discordgo.MessageTypeChannelPinnedMessage {
			if ref := m.MessageReference; ref != nil {
				b.Engine.HandlePinnedMessage(m.GuildID, ref.ChannelID, ref.MessageID)
			}
			return
		}

		// Ignore all messages created by the bot itself.
		if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
			return
		}

		prefix := viper.GetString(config.KeyPrefix)
		if prefix == "" || !strings.HasPrefix(m.Content, prefix) {
			return
		}

		fields := strings.Fields(strings.TrimPrefix(m.Content, prefix))
		if len(fields) == 0 {
			return
		}

		switch fields[0] {
		case "init":
			handleInit(b, s, m, fields[1:])
		case "archive":
			handleArchive(b, s, m, fields[1:])
		case "setreactcount":
			handleSetReactCount(b, s, m, fields[1:])
		case "getreactcount":
			handleGetReactCount(b, s, m)
		case "archivestats":
			handleArchiveStats(b, s, m)
		}
	}
}
