package handlers

import (
	"pin-archive-bot/bot"
	"pin-archive-bot/promote"

	"github.com/bwmarrin/discordgo"
)

// ReactionAdd routes pin-emoji reactions to the promotion engine.
func ReactionAdd(b *bot.Bot) func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	return func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		// Skip DMs and the bot's own marker reactions.
		if r.GuildID == "" || r.UserID == s.State.User.ID {
			return
		}
		if r.Emoji.Name != promote.PinEmoji {
			return
		}
		b.Engine.HandleReaction(r.GuildID, r.ChannelID, r.MessageID)
	}
}

// PinsUpdate routes channel pins-updated notifications to the promotion
// engine, which resolves the most recently pinned message itself.
func PinsUpdate(b *bot.Bot) func(s *discordgo.Session, p *discordgo.ChannelPinsUpdate) {
	return func(s *discordgo.Session, p *discordgo.ChannelPinsUpdate) {
		if p.GuildID == "" {
			return
		}
		b.Engine.HandlePinsUpdate(p.GuildID, p.ChannelID)
	}
}
