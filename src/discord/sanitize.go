package discord

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	sanitizer   = bluemonday.StrictPolicy()
	customEmoji = regexp.MustCompile(`^<a?:(\w+):(\d+)>$`)
	userMention = regexp.MustCompile(`^<@!?(\d+)>$`)
)

// cleanText strips markup from user supplied configuration values.
func cleanText(s string) string {
	return html.UnescapeString(sanitizer.Sanitize(s))
}

// reactionToken turns a configured reaction into the form the reactions API expects.
// Custom emoji written as <:name:id> become name:id.
func reactionToken(s string) string {
	s = strings.TrimSpace(s)
	if m := customEmoji.FindStringSubmatch(s); m != nil {
		return m[1] + ":" + m[2]
	}
	return strings.TrimSpace(cleanText(s))
}

// mentionedUser extracts the user id from a <@id> mention.
func mentionedUser(s string) (string, bool) {
	m := userMention.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return m[1], true
}
