package discord

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/countdown/src/config"
	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stake-plus/countdown/src/data"
	"go.uber.org/zap/zaptest"
)

var t0 = time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)

type reaction struct {
	MessageID string
	Emoji     string
}

type fakeSession struct {
	mu sync.Mutex

	reactions []reaction
	pins      []string
	sent      []*discordgo.MessageEmbed
	edited    []*discordgo.MessageEmbed
	// history is newest first, the order Discord pages in.
	history      []*discordgo.Message
	historyCalls int
	historyErr   error
	reactErr     error
	perms        map[string]int64
}

func newFakeSession() *fakeSession {
	return &fakeSession{perms: map[string]int64{}}
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactErr != nil {
		return f.reactErr
	}
	f.reactions = append(f.reactions, reaction{MessageID: messageID, Emoji: emojiID})
	return nil
}

func (f *fakeSession) ChannelMessagePin(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pins = append(f.pins, messageID)
	return nil
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, embed)
	return &discordgo.Message{ID: fmt.Sprintf("sent-%d", len(f.sent)), ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, embed)
	return &discordgo.Message{ID: messageID, ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	start := 0
	if beforeID != "" {
		for i, m := range f.history {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(f.history))
	return slices.Clone(f.history[start:end]), nil
}

func (f *fakeSession) UserChannelPermissions(userID, channelID string, _ ...discordgo.RequestOption) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perms[userID], nil
}

func (f *fakeSession) lastSent() *discordgo.MessageEmbed {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

// setHistory stores msgs, given oldest first, in paging order.
func (f *fakeSession) setHistory(msgs ...*discordgo.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = slices.Clone(msgs)
	slices.Reverse(f.history)
}

type fakeRepo struct {
	mu sync.Mutex

	created   map[string]string
	deleted   []string
	appended  []countdown.Message
	replaced  map[string][]countdown.Message
	timezones map[string]float64
	reactions map[int64][]string
	prefixes  map[string][]string
	err       error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		created:   map[string]string{},
		replaced:  map[string][]countdown.Message{},
		timezones: map[string]float64{},
		reactions: map[int64][]string{},
		prefixes:  map[string][]string{},
	}
}

func (r *fakeRepo) CreateCountdown(_ context.Context, id, guildID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.created[id] = guildID
	return nil
}

func (r *fakeRepo) DeleteCountdown(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return r.err
}

func (r *fakeRepo) AppendMessage(_ context.Context, m countdown.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended = append(r.appended, m)
	return r.err
}

func (r *fakeRepo) ReplaceMessages(_ context.Context, id string, msgs []countdown.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaced[id] = slices.Clone(msgs)
	return r.err
}

func (r *fakeRepo) SetTimezone(_ context.Context, id string, offsetHours float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timezones[id] = offsetHours
	return r.err
}

func (r *fakeRepo) SetReactions(_ context.Context, id string, number int64, tokens []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reactions[number] = tokens
	return r.err
}

func (r *fakeRepo) SetPrefixes(_ context.Context, id string, prefixes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[id] = prefixes
	return r.err
}

type recorder struct {
	mu     sync.Mutex
	events []data.Event
}

func (r *recorder) Publish(_ context.Context, ev data.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []data.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]data.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type harness struct {
	h       *Handler
	session *fakeSession
	repo    *fakeRepo
	store   *countdown.Store
	events  *recorder
}

func newHarness(t *testing.T, mutate ...func(*config.Bot)) *harness {
	t.Helper()
	bot := config.Bot{
		DefaultPrefixes: []string{"c!", "!count "},
		HistoryLimit:    1000,
		PrimeRule:       true,
	}
	for _, m := range mutate {
		m(&bot)
	}
	hs := &harness{
		session: newFakeSession(),
		repo:    newFakeRepo(),
		store:   countdown.NewStore(),
		events:  &recorder{},
	}
	hs.h = NewHandler(Config{
		Bot:       bot,
		Store:     hs.store,
		Repo:      hs.repo,
		Publisher: hs.events,
		Log:       zaptest.NewLogger(t),
		Now:       func() time.Time { return t0.Add(48 * time.Hour) },
	})
	return hs
}

// say delivers a chat message from author to the "chan" channel of "guild".
func (hs *harness) say(id, author, content string) {
	hs.h.HandleMessage(context.Background(), hs.session, chat(id, author, content))
}

func (hs *harness) activeCountdown(t *testing.T, settings countdown.Settings) *countdown.Countdown {
	t.Helper()
	settings.GuildID = "guild"
	c, err := hs.store.Create("chan", settings)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

var msgSeq int

func chat(id, author, content string) *discordgo.Message {
	msgSeq++
	return &discordgo.Message{
		ID:        id,
		ChannelID: "chan",
		GuildID:   "guild",
		Content:   content,
		Author:    &discordgo.User{ID: author},
		Timestamp: t0.Add(time.Duration(msgSeq) * time.Minute),
	}
}

// countdownMessages is a finished countdown from total to zero by two alternating authors.
func countdownMessages(total int64) []countdown.Message {
	var msgs []countdown.Message
	for i, n := 0, total; n >= 0; i, n = i+1, n-1 {
		author := "111"
		if i%2 == 1 {
			author = "222"
		}
		msgs = append(msgs, countdown.Message{
			ID:        fmt.Sprintf("m%d", i),
			AuthorID:  author,
			Number:    n,
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
		})
	}
	return msgs
}

var errBoom = errors.New("boom")
