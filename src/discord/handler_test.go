package discord

import (
	"testing"

	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stake-plus/countdown/src/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageCounts(t *testing.T) {
	hs := newHarness(t)
	c := hs.activeCountdown(t, countdown.Settings{})

	hs.say("1", "A", "100")
	hs.say("2", "B", "99 nice")
	hs.say("3", "A", "97")
	hs.say("4", "B", "98")
	hs.say("5", "C", "hello")

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []reaction{
		{MessageID: "3", Emoji: ReactWrongNumber},
		{MessageID: "4", Emoji: ReactSameAuthor},
	}, hs.session.reactions)

	require.Len(t, hs.repo.appended, 2)
	assert.EqualValues(t, 100, hs.repo.appended[0].Number)
	assert.Equal(t, "chan", hs.repo.appended[1].CountdownID)

	assert.Equal(t, []data.EventType{
		data.EventAccepted, data.EventAccepted, data.EventRejected, data.EventRejected,
	}, hs.events.types())
	assert.Equal(t, "wrong_number:98", hs.events.events[2].Detail)
	assert.Equal(t, "same_author", hs.events.events[3].Detail)
}

func TestHandleMessageIgnoresBotsAndOtherChannels(t *testing.T) {
	hs := newHarness(t)
	c := hs.activeCountdown(t, countdown.Settings{})

	bot := chat("1", "B0T", "100")
	bot.Author.Bot = true
	hs.h.HandleMessage(t.Context(), hs.session, bot)

	other := chat("2", "A", "100")
	other.ChannelID = "elsewhere"
	hs.h.HandleMessage(t.Context(), hs.session, other)

	assert.Zero(t, c.Len())
	assert.Empty(t, hs.session.reactions)
	assert.Empty(t, hs.events.events)
}

func TestHandleMessageSignals(t *testing.T) {
	hs := newHarness(t)
	hs.activeCountdown(t, countdown.Settings{Triggers: map[int64][]string{999: {"🎉", "party:123"}}})

	hs.say("1", "A", "1,000")
	hs.say("2", "B", "999")

	assert.Equal(t, []string{"1"}, hs.session.pins)
	assert.Equal(t, []reaction{
		{MessageID: "2", Emoji: "🎉"},
		{MessageID: "2", Emoji: "party:123"},
	}, hs.session.reactions)
	assert.Contains(t, hs.events.types(), data.EventPin)
	assert.Equal(t, "🎉 party:123", hs.events.events[len(hs.events.events)-1].Detail)
}

func TestHandleMessageCelebratesZero(t *testing.T) {
	hs := newHarness(t)
	hs.activeCountdown(t, countdown.Settings{})

	hs.say("1", "A", "1")
	hs.say("2", "B", "0")

	assert.Equal(t, []reaction{{MessageID: "2", Emoji: ReactCelebrate}}, hs.session.reactions)
	assert.Empty(t, hs.session.pins)
}

func TestHandleMessageKeepsCountingWhenPersistenceFails(t *testing.T) {
	hs := newHarness(t)
	c := hs.activeCountdown(t, countdown.Settings{})
	hs.repo.err = errBoom

	hs.say("1", "A", "10")
	hs.say("2", "B", "9")
	assert.Equal(t, 2, c.Len())
}

func TestPrefixesFor(t *testing.T) {
	hs := newHarness(t)
	assert.Equal(t, []string{"!count ", "c!"}, hs.h.prefixesFor("guild", "chan"))

	hs.activeCountdown(t, countdown.Settings{Prefixes: []string{"x!"}})
	_, err := hs.store.Create("other", countdown.Settings{GuildID: "guild", Prefixes: []string{"longer!", "x!"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"longer!", "x!"}, hs.h.prefixesFor("guild", "chan"))
	assert.Equal(t, []string{"!count ", "c!"}, hs.h.prefixesFor("another-guild", "dm"))
}

func TestMatchPrefixIgnoresCase(t *testing.T) {
	hs := newHarness(t)
	prefix, rest, ok := hs.h.matchPrefix(chat("1", "A", "C!progress"))
	require.True(t, ok)
	assert.Equal(t, "c!", prefix)
	assert.Equal(t, "progress", rest)

	_, _, ok = hs.h.matchPrefix(chat("2", "A", "100"))
	assert.False(t, ok)
}

func TestContextCountdown(t *testing.T) {
	hs := newHarness(t)
	_, err := hs.h.contextCountdown(chat("1", "A", ""), "c!")
	require.ErrorIs(t, err, countdown.ErrCountdownNotFound)

	first, err := hs.store.Create("a", countdown.Settings{GuildID: "guild"})
	require.NoError(t, err)
	second, err := hs.store.Create("b", countdown.Settings{GuildID: "guild", Prefixes: []string{"b!"}})
	require.NoError(t, err)

	got, err := hs.h.contextCountdown(chat("2", "A", ""), "b!")
	require.NoError(t, err)
	assert.Same(t, second, got)

	got, err = hs.h.contextCountdown(chat("3", "A", ""), "c!")
	require.NoError(t, err)
	assert.Same(t, first, got)
}
