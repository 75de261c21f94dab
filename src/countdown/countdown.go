package countdown

import (
	"context"
	"iter"
	"maps"
	"slices"
	"sync"
	"time"
)

// Settings is the per-countdown configuration.
type Settings struct {
	GuildID string
	// TimezoneOffsetHours only affects bucketing and display; timestamps stay UTC.
	TimezoneOffsetHours float64
	// Triggers maps a number to the reaction tokens applied when it is posted.
	Triggers map[int64][]string
	Prefixes []string
}

func (s Settings) clone() Settings {
	out := s
	out.Prefixes = slices.Clone(s.Prefixes)
	out.Triggers = make(map[int64][]string, len(s.Triggers))
	for n, tokens := range s.Triggers {
		out.Triggers[n] = slices.Clone(tokens)
	}
	return out
}

// Countdown is one counting game. All mutations of the message sequence go through
// TryAppend or a reload, serialised by the countdown's lock.
type Countdown struct {
	id string

	mu       sync.RWMutex
	messages []Message
	settings Settings
}

// New creates an empty countdown.
func New(id string, settings Settings) *Countdown {
	return &Countdown{id: id, settings: settings.clone()}
}

func (c *Countdown) ID() string { return c.id }

// TryAppend validates a candidate and appends it when it continues the sequence.
func (c *Countdown) TryAppend(cand Candidate) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out Outcome
	c.messages, out = appendLocked(c.id, c.messages, cand, c.settings.Triggers)
	return out
}

// ReloadResult counts what happened while replaying a history.
type ReloadResult struct {
	Accepted int
	Rejected int
}

// Reload clears the countdown and replays history into it. The countdown stays locked
// until the replay finishes. If history yields an error or ctx is cancelled, the previous
// sequence is kept.
func (c *Countdown) Reload(ctx context.Context, history iter.Seq2[Candidate, error]) (ReloadResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		res  ReloadResult
		msgs []Message
		out  Outcome
	)
	for cand, err := range history {
		if err != nil {
			return ReloadResult{}, err
		}
		if err := ctx.Err(); err != nil {
			return ReloadResult{}, err
		}
		msgs, out = appendLocked(c.id, msgs, cand, c.settings.Triggers)
		if out.Accepted {
			res.Accepted++
		} else {
			res.Rejected++
		}
	}
	c.messages = msgs
	return res, nil
}

// Restore rehydrates the countdown from persisted messages, revalidating them.
func (c *Countdown) Restore(msgs []Message) ReloadResult {
	res, _ := c.Reload(context.Background(), func(yield func(Candidate, error) bool) {
		for _, m := range msgs {
			if !yield(Candidate{ID: m.ID, AuthorID: m.AuthorID, Number: m.Number, Timestamp: m.Timestamp}, nil) {
				return
			}
		}
	})
	return res
}

// Len returns the number of accepted messages.
func (c *Countdown) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Settings returns a copy of the countdown configuration.
func (c *Countdown) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.clone()
}

func (c *Countdown) SetTimezone(offsetHours float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.TimezoneOffsetHours = offsetHours
}

// SetTriggers replaces the reaction tokens for number. No tokens removes the trigger.
func (c *Countdown) SetTriggers(number int64, tokens []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settings.Triggers == nil {
		c.settings.Triggers = make(map[int64][]string)
	}
	if len(tokens) == 0 {
		delete(c.settings.Triggers, number)
		return
	}
	c.settings.Triggers[number] = slices.Clone(tokens)
}

func (c *Countdown) SetPrefixes(prefixes []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Prefixes = slices.Clone(prefixes)
}

// Snapshot returns a consistent read-only view of the countdown. The sequence is
// append-only, so the view shares storage with the countdown without copying.
func (c *Countdown) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.messages)
	return Snapshot{
		ID:       c.id,
		Messages: c.messages[:n:n],
		Settings: c.settings.clone(),
	}
}

// Snapshot is a point-in-time view of a countdown. Its methods are the statistics views.
type Snapshot struct {
	ID       string
	Messages []Message
	Settings Settings
}

// Last returns the most recent message.
func (s Snapshot) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// TriggerNumbers returns the numbers with reaction triggers, highest first.
func (s Snapshot) TriggerNumbers() []int64 {
	nums := slices.Collect(maps.Keys(s.Settings.Triggers))
	slices.Sort(nums)
	slices.Reverse(nums)
	return nums
}

func (s Snapshot) Progress(now time.Time) (ProgressStats, error) {
	return Progress(s.Messages, now)
}

func (s Snapshot) Speed(period time.Duration) ([]SpeedBucket, error) {
	return Speed(s.Messages, period, s.Settings.TimezoneOffsetHours)
}

func (s Snapshot) ETA(period time.Duration, now time.Time) ([]ETAPoint, error) {
	return ETA(s.Messages, period, s.Settings.TimezoneOffsetHours, now)
}

func (s Snapshot) Heatmap(authorID string) (Heatmap, error) {
	return BuildHeatmap(s.Messages, s.Settings.TimezoneOffsetHours, authorID)
}

func (s Snapshot) Contributors() ([]Contributor, error) {
	return Contributors(s.Messages)
}

func (s Snapshot) HistoricalContributors() ([]ContributorHistory, error) {
	return HistoricalContributors(s.Messages)
}

func (s Snapshot) Leaderboard(scorer *Scorer) ([]LeaderboardEntry, error) {
	return scorer.Leaderboard(s.Messages)
}

func (s Snapshot) Standing(scorer *Scorer, authorID string) (LeaderboardEntry, error) {
	return scorer.Standing(s.Messages, authorID)
}
