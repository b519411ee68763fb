package handlers

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"pin-archive-bot/bot"
	"pin-archive-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// handleInit sets the guild's archive channel and rotates its webhook.
// Admin only; unauthorized invocations are silently ignored.
func handleInit(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if !utils.IsAdmin(s, m.ChannelID, m.Author.ID) {
		return
	}
	if len(args) != 1 {
		s.ChannelMessageSend(m.ChannelID, "Usage: init <pin archive channel>")
		return
	}

	channelID, ok := parseChannelRef(args[0])
	if !ok {
		s.ChannelMessageSend(m.ChannelID, "Could not parse that channel. Mention it like #archive.")
		return
	}

	channel, err := s.Channel(channelID)
	if err != nil || channel.GuildID != m.GuildID {
		s.ChannelMessageSend(m.ChannelID, "Could not find that channel in this server.")
		return
	}

	if err := b.Store.SetArchiveChannel(m.GuildID, channelID); err != nil {
		log.Printf("Failed to save archive channel for guild %s: %v", m.GuildID, err)
		s.ChannelMessageSend(m.ChannelID, "Failed to save the archive channel, check the bot logs.")
		return
	}

	if _, err := b.Dispatcher.Rotate(m.GuildID, channelID); err != nil {
		log.Printf("Failed to create webhook for guild %s: %v", m.GuildID, err)
		s.ChannelMessageSend(m.ChannelID, "Saved the archive channel, but creating its webhook failed. Does the bot have Manage Webhooks there?")
		return
	}

	utils.Info("init", "archive channel configured", fmt.Sprintf("guild %s -> channel %s", m.GuildID, channelID))
	s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Set archive channel to <#%s> and created webhook", channelID))
}

// handleArchive force-archives a message. Requires Manage Messages.
func handleArchive(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if !utils.CanManageMessages(s, m.ChannelID, m.Author.ID) {
		return
	}
	if len(args) != 1 {
		s.ChannelMessageSend(m.ChannelID, "Usage: archive <message id or link>")
		return
	}

	channelID, messageID, ok := parseMessageRef(args[0], m.ChannelID)
	if !ok {
		s.ChannelMessageSend(m.ChannelID, "Could not parse that message reference. Use a message ID or link.")
		return
	}

	message, err := s.ChannelMessage(channelID, messageID)
	if err != nil {
		s.ChannelMessageSend(m.ChannelID, "Could not find that message.")
		return
	}

	b.Engine.Archive(message, m.GuildID, m.ChannelID)
}

// handleSetReactCount sets the pin threshold. Requires Manage Messages.
func handleSetReactCount(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if !utils.CanManageMessages(s, m.ChannelID, m.Author.ID) {
		return
	}
	if len(args) != 1 {
		s.ChannelMessageSend(m.ChannelID, "Usage: setreactcount <count>")
		return
	}

	count, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || count < 1 {
		s.ChannelMessageSend(m.ChannelID, "Reaction count must be a number of at least 1.")
		return
	}

	if err := b.Store.SetReactionCount(m.GuildID, count); err != nil {
		log.Printf("Failed to save reaction count for guild %s: %v", m.GuildID, err)
		s.ChannelMessageSend(m.ChannelID, "Failed to save the reaction count, check the bot logs.")
		return
	}

	s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Set reaction count to %d 📌", count))
}

// handleGetReactCount reports the current pin threshold.
func handleGetReactCount(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate) {
	count, err := b.Store.ReactionCount(m.GuildID)
	if err != nil {
		log.Printf("Failed to read reaction count for guild %s: %v", m.GuildID, err)
		return
	}
	s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Reaction count is %d 📌", count))
}

// handleArchiveStats reports how many messages this guild has archived.
func handleArchiveStats(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate) {
	if b.Index == nil {
		return
	}
	count, err := b.Index.CountForGuild(m.GuildID)
	if err != nil {
		log.Printf("Failed to count archive records for guild %s: %v", m.GuildID, err)
		return
	}
	s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("%d messages archived in this server 📌", count))
}

// parseChannelRef accepts a channel mention like <#123> or a bare channel ID.
func parseChannelRef(ref string) (string, bool) {
	id := strings.TrimSuffix(strings.TrimPrefix(ref, "<#"), ">")
	if id == "" {
		return "", false
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return "", false
	}
	return id, true
}

// parseMessageRef accepts a message link
// (https://discord.com/channels/{guild}/{channel}/{message}), a
// channel-message pair like {channel}-{message}, or a bare message ID in the
// current channel.
func parseMessageRef(ref, currentChannelID string) (channelID, messageID string, ok bool) {
	if idx := strings.Index(ref, "/channels/"); idx >= 0 {
		parts := strings.Split(strings.Trim(ref[idx+len("/channels/"):], "/"), "/")
		if len(parts) != 3 || !isSnowflake(parts[1]) || !isSnowflake(parts[2]) {
			return "", "", false
		}
		return parts[1], parts[2], true
	}

	if before, after, found := strings.Cut(ref, "-"); found {
		if !isSnowflake(before) || !isSnowflake(after) {
			return "", "", false
		}
		return before, after, true
	}

	if !isSnowflake(ref) {
		return "", "", false
	}
	return currentChannelID, ref, true
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
