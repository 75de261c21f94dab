package discord

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []*discordgo.Message {
	msgs := make([]*discordgo.Message, 0, n)
	for i := range n {
		author := "A"
		if i%2 == 1 {
			author = "B"
		}
		msgs = append(msgs, chat(fmt.Sprintf("h%d", i), author, fmt.Sprint(n-i)))
	}
	return msgs
}

func TestFetchHistoryPagesOldestFirst(t *testing.T) {
	s := newFakeSession()
	s.setHistory(numbered(250)...)

	msgs, err := FetchHistory(t.Context(), s, "chan", 1000)
	require.NoError(t, err)
	require.Len(t, msgs, 250)
	assert.Equal(t, "h0", msgs[0].ID)
	assert.Equal(t, "h249", msgs[249].ID)
	assert.Equal(t, 3, s.historyCalls)
}

func TestFetchHistoryRespectsLimit(t *testing.T) {
	s := newFakeSession()
	s.setHistory(numbered(250)...)

	msgs, err := FetchHistory(t.Context(), s, "chan", 150)
	require.NoError(t, err)
	require.Len(t, msgs, 150)
	// the newest 150 messages survive
	assert.Equal(t, "h100", msgs[0].ID)
	assert.Equal(t, "h249", msgs[149].ID)
}

func TestFetchHistoryError(t *testing.T) {
	s := newFakeSession()
	s.historyErr = errBoom
	_, err := FetchHistory(t.Context(), s, "chan", 10)
	require.ErrorIs(t, err, errBoom)
}

func TestLoadHistorySkipsNoise(t *testing.T) {
	s := newFakeSession()
	bot := chat("b", "B0T", "4")
	bot.Author.Bot = true
	s.setHistory(
		chat("1", "A", "5"),
		chat("2", "B", "chatter"),
		bot,
		chat("3", "B", "4,"),
	)

	var ids []string
	for cand, err := range LoadHistory(t.Context(), s, "chan", 100) {
		require.NoError(t, err)
		ids = append(ids, cand.ID)
	}
	assert.Equal(t, []string{"1", "3"}, ids)
}

func TestLoadHistoryYieldsError(t *testing.T) {
	s := newFakeSession()
	s.historyErr = errBoom

	var errs []error
	for _, err := range LoadHistory(t.Context(), s, "chan", 100) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errBoom)
}
