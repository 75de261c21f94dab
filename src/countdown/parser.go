package countdown

import (
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[0-9][0-9,]*`)

// ParseNumber extracts the leading number of a chat message, ignoring comma group
// separators. The boolean is false when the text does not start with a digit, which
// means the message is not a countdown post at all.
func ParseNumber(text string) (int64, bool) {
	match := leadingNumber.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(match, ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
