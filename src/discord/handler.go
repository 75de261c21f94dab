package discord

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/countdown/src/config"
	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stake-plus/countdown/src/data"
	"github.com/stake-plus/countdown/src/metrics"
	"go.uber.org/zap"
)

// Repository is the persistence the bot writes through to.
type Repository interface {
	CreateCountdown(ctx context.Context, id, guildID string) error
	DeleteCountdown(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, m countdown.Message) error
	ReplaceMessages(ctx context.Context, id string, msgs []countdown.Message) error
	SetTimezone(ctx context.Context, id string, offsetHours float64) error
	SetReactions(ctx context.Context, id string, number int64, tokens []string) error
	SetPrefixes(ctx context.Context, id string, prefixes []string) error
}

// Config wires a Handler.
type Config struct {
	Bot       config.Bot
	Store     *countdown.Store
	Repo      Repository
	Publisher data.Publisher
	Metrics   *metrics.Metrics
	Log       *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler routes chat messages to countdowns and commands.
type Handler struct {
	cfg     config.Bot
	store   *countdown.Store
	repo    Repository
	events  data.Publisher
	metrics *metrics.Metrics
	scorer  *countdown.Scorer
	limiter *RateLimiter
	log     *zap.Logger
	now     func() time.Time
}

func NewHandler(cfg Config) *Handler {
	h := &Handler{
		cfg:     cfg.Bot,
		store:   cfg.Store,
		repo:    cfg.Repo,
		events:  cfg.Publisher,
		metrics: cfg.Metrics,
		scorer:  countdown.NewScorer(cfg.Bot.PrimeRule),
		limiter: NewRateLimiter(cfg.Bot.CommandRate, cfg.Bot.CommandBurst),
		log:     cfg.Log.Named("discord"),
		now:     cfg.Now,
	}
	if h.events == nil {
		h.events = data.NopPublisher{}
	}
	if h.metrics == nil {
		h.metrics = metrics.New(nil)
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// HandleMessage processes one incoming chat message.
func (h *Handler) HandleMessage(ctx context.Context, s Session, msg *discordgo.Message) {
	if msg == nil || msg.Author == nil || msg.Author.Bot {
		return
	}
	if prefix, rest, ok := h.matchPrefix(msg); ok {
		h.runCommand(ctx, s, msg, prefix, rest)
		return
	}

	c, ok := h.store.Get(msg.ChannelID)
	if !ok {
		return
	}
	cand, ok := candidateFrom(msg)
	if !ok {
		return
	}
	if cand.Timestamp.IsZero() {
		cand.Timestamp = h.now()
	}

	out := c.TryAppend(cand)
	h.metrics.ObserveOutcome(out)
	if out.Accepted {
		if err := h.repo.AppendMessage(ctx, out.Message); err != nil {
			h.log.Error("persist message failed", zap.String("countdown", c.ID()), zap.String("message", msg.ID), zap.Error(err))
		}
	}
	_ = NewNotifier(s, h.log).Apply(msg.ChannelID, msg.ID, out)
	for _, ev := range data.OutcomeEvents(c.ID(), cand, out, h.now()) {
		h.publish(ctx, ev)
	}
}

func (h *Handler) publish(ctx context.Context, ev data.Event) {
	if err := h.events.Publish(ctx, ev); err != nil {
		h.log.Warn("publish event failed", zap.String("type", string(ev.Type)), zap.String("countdown", ev.CountdownID), zap.Error(err))
	}
}

// prefixesFor returns the command prefixes active in a channel, longest first.
func (h *Handler) prefixesFor(guildID, channelID string) []string {
	var out []string
	if c, ok := h.store.Get(channelID); ok {
		out = append(out, c.Settings().Prefixes...)
	}
	if guildID != "" {
		for _, c := range h.store.InGuild(guildID) {
			out = append(out, c.Settings().Prefixes...)
		}
	}
	if len(out) == 0 {
		out = append(out, h.cfg.DefaultPrefixes...)
	}
	slices.Sort(out)
	out = slices.Compact(out)
	slices.SortStableFunc(out, func(a, b string) int { return len(b) - len(a) })
	return out
}

func (h *Handler) matchPrefix(msg *discordgo.Message) (prefix, rest string, ok bool) {
	for _, p := range h.prefixesFor(msg.GuildID, msg.ChannelID) {
		if p != "" && len(msg.Content) >= len(p) && strings.EqualFold(msg.Content[:len(p)], p) {
			return p, msg.Content[len(p):], true
		}
	}
	return "", "", false
}

// contextCountdown picks the countdown a command refers to: the channel itself, else the
// guild countdown using the matched prefix, else the guild's first countdown. In direct
// messages it is the countdown the author last counted in.
func (h *Handler) contextCountdown(msg *discordgo.Message, prefix string) (*countdown.Countdown, error) {
	if c, ok := h.store.Get(msg.ChannelID); ok {
		return c, nil
	}
	if msg.GuildID == "" {
		return h.userCountdown(msg.Author.ID)
	}
	guild := h.store.InGuild(msg.GuildID)
	for _, c := range guild {
		if slices.Contains(c.Settings().Prefixes, prefix) {
			return c, nil
		}
	}
	if len(guild) > 0 {
		return guild[0], nil
	}
	return nil, countdown.ErrCountdownNotFound
}

func (h *Handler) userCountdown(authorID string) (*countdown.Countdown, error) {
	var (
		found  *countdown.Countdown
		latest time.Time
	)
	for _, id := range h.store.IDs() {
		c, ok := h.store.Get(id)
		if !ok {
			continue
		}
		msgs := c.Snapshot().Messages
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].AuthorID != authorID {
				continue
			}
			if found == nil || msgs[i].Timestamp.After(latest) {
				found, latest = c, msgs[i].Timestamp
			}
			break
		}
	}
	if found == nil {
		return nil, countdown.ErrCountdownNotFound
	}
	return found, nil
}

// userError is a command failure shown to the user as is.
type userError string

func (e userError) Error() string { return string(e) }

func (h *Handler) describeError(err error, command string) string {
	var ue userError
	switch {
	case errors.As(err, &ue):
		return string(ue)
	case errors.Is(err, countdown.ErrCountdownNotFound):
		return "Countdown not found"
	case errors.Is(err, countdown.ErrEmptyCountdown):
		return "The countdown doesn't have enough messages yet"
	case errors.Is(err, countdown.ErrInvalidPeriod):
		return "Period must be a positive number of hours"
	default:
		h.log.Error("command failed", zap.String("command", command), zap.Error(err))
		return "Something went wrong while running that command"
	}
}

func (h *Handler) send(s Session, channelID string, embed *discordgo.MessageEmbed) *discordgo.Message {
	msg, err := s.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		h.log.Warn("send embed failed", zap.String("channel", channelID), zap.Error(err))
		return nil
	}
	return msg
}

// replace edits a status message, or sends a new one if there is nothing to edit.
func (h *Handler) replace(s Session, channelID string, status *discordgo.Message, embed *discordgo.MessageEmbed) {
	if status == nil {
		h.send(s, channelID, embed)
		return
	}
	if _, err := s.ChannelMessageEditEmbed(channelID, status.ID, embed); err != nil {
		h.log.Warn("edit embed failed", zap.String("channel", channelID), zap.Error(err))
	}
}
