package discord

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/countdown/src/countdown"
)

// historyPageSize is the most messages Discord returns per request.
const historyPageSize = 100

// FetchHistory reads up to limit messages from a channel, oldest first.
func FetchHistory(ctx context.Context, s Session, channelID string, limit int) ([]*discordgo.Message, error) {
	var (
		out    []*discordgo.Message
		before string
	)
	for len(out) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.ChannelMessages(channelID, min(historyPageSize, limit-len(out)), before, "", "")
		if err != nil {
			return nil, fmt.Errorf("discord: history %s: %w", channelID, err)
		}
		out = append(out, page...)
		if len(page) < historyPageSize {
			break
		}
		before = page[len(page)-1].ID
	}
	slices.Reverse(out)
	return out, nil
}

// LoadHistory yields a channel's countdown candidates oldest first. Messages from bots
// and messages that do not start with a number are skipped.
func LoadHistory(ctx context.Context, s Session, channelID string, limit int) iter.Seq2[countdown.Candidate, error] {
	return func(yield func(countdown.Candidate, error) bool) {
		msgs, err := FetchHistory(ctx, s, channelID, limit)
		if err != nil {
			yield(countdown.Candidate{}, err)
			return
		}
		for _, m := range msgs {
			cand, ok := candidateFrom(m)
			if !ok {
				continue
			}
			if !yield(cand, nil) {
				return
			}
		}
	}
}

func candidateFrom(m *discordgo.Message) (countdown.Candidate, bool) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return countdown.Candidate{}, false
	}
	n, ok := countdown.ParseNumber(m.Content)
	if !ok {
		return countdown.Candidate{}, false
	}
	return countdown.Candidate{
		ID:        m.ID,
		AuthorID:  m.Author.ID,
		Number:    n,
		Timestamp: m.Timestamp,
	}, true
}
