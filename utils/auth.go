package utils

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

// HasPermission reports whether the user holds the given permission bits in
// the channel. Administrator implies everything.
func HasPermission(s *discordgo.Session, channelID, userID string, permission int64) bool {
	perms, err := s.UserChannelPermissions(userID, channelID)
	if err != nil {
		log.Printf("Failed to resolve permissions for user %s in channel %s: %v", userID, channelID, err)
		return false
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return perms&permission == permission
}

// IsAdmin reports whether the user is an administrator in the channel.
func IsAdmin(s *discordgo.Session, channelID, userID string) bool {
	return HasPermission(s, channelID, userID, discordgo.PermissionAdministrator)
}

// CanManageMessages reports whether the user can manage messages in the channel.
func CanManageMessages(s *discordgo.Session, channelID, userID string) bool {
	return HasPermission(s, channelID, userID, discordgo.PermissionManageMessages)
}
