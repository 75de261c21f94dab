package discord

import (
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNotifierRejections(t *testing.T) {
	s := newFakeSession()
	n := NewNotifier(s, zap.NewNop())

	require.NoError(t, n.Apply("chan", "1", countdown.Outcome{Reject: countdown.RejectWrongNumber}))
	require.NoError(t, n.Apply("chan", "2", countdown.Outcome{Reject: countdown.RejectSameAuthor}))
	assert.Equal(t, []reaction{{"1", ReactWrongNumber}, {"2", ReactSameAuthor}}, s.reactions)
	assert.Empty(t, s.pins)
}

func TestNotifierAcceptedOrder(t *testing.T) {
	s := newFakeSession()
	n := NewNotifier(s, zap.NewNop())

	out := countdown.Outcome{
		Accepted: true,
		Signals:  countdown.Signals{Celebrate: true, PinWorthy: true, Triggers: []string{"🎉"}},
	}
	require.NoError(t, n.Apply("chan", "0", out))
	assert.Equal(t, []reaction{{"0", ReactCelebrate}, {"0", "🎉"}}, s.reactions)
	assert.Equal(t, []string{"0"}, s.pins)
}

func TestNotifierReportsRateLimits(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := newFakeSession()
	s.reactErr = &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}
	n := NewNotifier(s, zap.New(core))

	err := n.Apply("chan", "1", countdown.Outcome{Accepted: true, Signals: countdown.Signals{Triggers: []string{"a", "b"}}})
	require.Error(t, err)
	assert.Equal(t, 2, logs.FilterMessage("rate limited").Len())

	s.reactErr = errBoom
	require.ErrorIs(t, n.Apply("chan", "2", countdown.Outcome{Reject: countdown.RejectSameAuthor}), errBoom)
	assert.Equal(t, 1, logs.FilterMessage("notify failed").Len())
}
