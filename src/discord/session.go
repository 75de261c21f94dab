package discord

import "github.com/bwmarrin/discordgo"

// Session is the part of *discordgo.Session the bot talks to. Tests substitute a fake.
type Session interface {
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	ChannelMessagePin(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

var _ Session = (*discordgo.Session)(nil)

// IsAdmin reports whether a user has the Administrator permission in a channel.
func IsAdmin(s Session, userID, channelID string) bool {
	perms, err := s.UserChannelPermissions(userID, channelID)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}
