package models

// ArchiveRecord is one row in the archive index: a message that was promoted
// and delivered to a guild's archive channel.
type ArchiveRecord struct {
	MessageID  string `json:"message_id"`
	GuildID    string `json:"guild_id"`
	ChannelID  string `json:"channel_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Permalink  string `json:"permalink"`
	ArchivedAt int64  `json:"archived_at"` // Unix seconds
}
