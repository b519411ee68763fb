package archive

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const embedColor = 0x7289da

// Payload is the outbound webhook representation of an archived message.
// Built fresh per archive call, never cached.
type Payload struct {
	Content string
	Embeds  []*discordgo.MessageEmbed
}

// MessageLink builds the canonical permalink for a message.
func MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// BuildPayload converts a message into its archive payload. Pure: no session
// access, no side effects.
//
// Image selection: if the platform rendered embeds for the message, the first
// embed's thumbnail becomes the main image when its URL appears literally in
// the message text (the author pasted a direct link), and a thumbnail
// otherwise. With no platform embeds, the first image-typed attachment is the
// main image. Every attachment also gets a link field so none is dropped.
func BuildPayload(m *discordgo.Message, guildID, channelName string) *Payload {
	name := displayName(m.Author)
	link := MessageLink(guildID, m.ChannelID, m.ID)

	embed := &discordgo.MessageEmbed{
		URL:         link,
		Description: m.Content,
		Timestamp:   m.Timestamp.Format(time.RFC3339),
		Color:       embedColor,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    name,
			URL:     link,
			IconURL: m.Author.AvatarURL(""),
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Sent in %s", channelName),
		},
	}

	if len(m.Embeds) > 0 {
		if thumb := m.Embeds[0].Thumbnail; thumb != nil && thumb.URL != "" {
			if strings.Contains(m.Content, thumb.URL) {
				embed.Image = &discordgo.MessageEmbedImage{URL: thumb.URL}
			} else {
				embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumb.URL}
			}
		}
	} else {
		for _, attachment := range m.Attachments {
			if isImage(attachment) {
				embed.Image = &discordgo.MessageEmbedImage{URL: attachment.URL}
				break
			}
		}
	}

	for _, attachment := range m.Attachments {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🔗",
			Value: attachment.URL,
		})
	}

	embeds := []*discordgo.MessageEmbed{embed}
	// Carry secondary embeds through, except ones the platform already
	// expanded from a link visible in the message text.
	for _, original := range m.Embeds {
		if original.URL != "" && strings.Contains(m.Content, original.URL) {
			continue
		}
		embeds = append(embeds, original)
	}

	return &Payload{
		Content: fmt.Sprintf("[Message from %s](%s)", name, link),
		Embeds:  embeds,
	}
}

func displayName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func isImage(a *discordgo.MessageAttachment) bool {
	contentType := a.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(a.Filename))
	}
	return strings.HasPrefix(contentType, "image/")
}
