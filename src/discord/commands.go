package discord

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stake-plus/countdown/src/data"
	"go.uber.org/zap"
)

const (
	CommandActivate     = "activate"
	CommandDeactivate   = "deactivate"
	CommandReload       = "reload"
	CommandConfig       = "config"
	CommandAnalytics    = "analytics"
	CommandContributors = "contributors"
	CommandETA          = "eta"
	CommandHeatmap      = "heatmap"
	CommandLeaderboard  = "leaderboard"
	CommandProgress     = "progress"
	CommandSpeed        = "speed"
)

var commandAliases = map[string]string{
	"a": CommandAnalytics,
	"c": CommandContributors,
	"e": CommandETA,
	"l": CommandLeaderboard,
	"p": CommandProgress,
	"s": CommandSpeed,
}

// analyticsOrder is the order the analytics command runs the other views in.
var analyticsOrder = []struct {
	name string
	args []string
}{
	{CommandContributors, nil},
	{CommandContributors, []string{"history"}},
	{CommandETA, nil},
	{CommandHeatmap, nil},
	{CommandLeaderboard, nil},
	{CommandProgress, nil},
	{CommandSpeed, nil},
}

// request is one parsed command invocation.
type request struct {
	s      Session
	msg    *discordgo.Message
	prefix string
	name   string
	args   []string
}

func (r request) arg(i int) string {
	if i < len(r.args) {
		return r.args[i]
	}
	return ""
}

func (h *Handler) runCommand(ctx context.Context, s Session, msg *discordgo.Message, prefix, rest string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return
	}
	name := strings.ToLower(fields[0])
	if full, ok := commandAliases[name]; ok {
		name = full
	}
	req := request{s: s, msg: msg, prefix: prefix, name: name, args: fields[1:]}

	var err error
	switch name {
	case CommandActivate:
		err = h.activate(ctx, req)
	case CommandDeactivate:
		err = h.deactivate(ctx, req)
	case CommandReload:
		err = h.reloadCommand(ctx, req)
	case CommandConfig:
		err = h.config(ctx, req)
	case CommandAnalytics, CommandContributors, CommandETA, CommandHeatmap, CommandLeaderboard, CommandProgress, CommandSpeed:
		err = h.analytics(req)
	default:
		h.send(s, msg.ChannelID, ErrorEmbed(fmt.Sprintf("Command not found: `%s`", name)))
		return
	}
	h.metrics.ObserveCommand(name)
	if err != nil {
		h.send(s, msg.ChannelID, ErrorEmbed(h.describeError(err, name)))
	}
}

func (h *Handler) activate(ctx context.Context, req request) error {
	channelID := req.msg.ChannelID
	if _, ok := h.store.Get(channelID); ok {
		return userError("This channel is already a countdown")
	}
	if req.msg.GuildID == "" {
		return userError("This command must be run inside a server")
	}
	if !IsAdmin(req.s, req.msg.Author.ID, channelID) {
		return userError("You must be an administrator to turn a channel into a countdown")
	}

	if err := h.repo.CreateCountdown(ctx, channelID, req.msg.GuildID); err != nil {
		return err
	}
	c, err := h.store.Create(channelID, countdown.Settings{GuildID: req.msg.GuildID})
	if err != nil {
		return err
	}
	h.log.Info("countdown activated", zap.String("countdown", channelID), zap.String("guild", req.msg.GuildID))
	h.publish(ctx, data.Event{Type: data.EventActivated, CountdownID: channelID, AuthorID: req.msg.Author.ID, Time: h.now()})

	status := h.send(req.s, channelID, StatusEmbed(":clock3: Loading Countdown", "This channel is now a countdown\nPlease wait to start counting"))
	if _, err := h.reload(ctx, req.s, c); err != nil {
		return err
	}
	h.replace(req.s, channelID, status, StatusEmbed(":white_check_mark: Countdown Activated", "This channel is now a countdown\nYou may start counting!"))
	return nil
}

func (h *Handler) deactivate(ctx context.Context, req request) error {
	channelID := req.msg.ChannelID
	if _, ok := h.store.Get(channelID); !ok {
		return userError("This channel isn't a countdown")
	}
	if !IsAdmin(req.s, req.msg.Author.ID, channelID) {
		return userError("You must be an administrator to deactivate a countdown channel")
	}
	if err := h.repo.DeleteCountdown(ctx, channelID); err != nil {
		return err
	}
	h.store.Delete(channelID)
	h.log.Info("countdown deactivated", zap.String("countdown", channelID))
	h.publish(ctx, data.Event{Type: data.EventDeactivated, CountdownID: channelID, AuthorID: req.msg.Author.ID, Time: h.now()})
	h.send(req.s, channelID, StatusEmbed(":octagonal_sign: Countdown Deactivated", "This channel is no longer a countdown"))
	return nil
}

func (h *Handler) reloadCommand(ctx context.Context, req request) error {
	c, ok := h.store.Get(req.msg.ChannelID)
	if !ok {
		return userError("Countdown not found\nThis command must be used in a countdown channel")
	}
	status := h.send(req.s, c.ID(), StatusEmbed(":clock3: Reloading Countdown Cache", "Please wait to continue counting"))
	if _, err := h.reload(ctx, req.s, c); err != nil {
		return err
	}
	h.replace(req.s, c.ID(), status, StatusEmbed(":white_check_mark: Countdown Cache Reloaded", "Done! You may continue counting!"))
	return nil
}

// reload rebuilds a countdown from channel history and stores the result.
func (h *Handler) reload(ctx context.Context, s Session, c *countdown.Countdown) (countdown.ReloadResult, error) {
	res, err := c.Reload(ctx, LoadHistory(ctx, s, c.ID(), h.cfg.HistoryLimit))
	h.metrics.ObserveReload(err)
	if err != nil {
		return res, err
	}
	if err := h.repo.ReplaceMessages(ctx, c.ID(), c.Snapshot().Messages); err != nil {
		return res, err
	}
	h.log.Info("countdown reloaded", zap.String("countdown", c.ID()), zap.Int("accepted", res.Accepted), zap.Int("rejected", res.Rejected))
	h.publish(ctx, data.Event{
		Type:        data.EventReloaded,
		CountdownID: c.ID(),
		Detail:      fmt.Sprintf("accepted=%d rejected=%d", res.Accepted, res.Rejected),
		Time:        h.now(),
	})
	return res, nil
}

func (h *Handler) config(ctx context.Context, req request) error {
	if req.msg.GuildID == "" {
		return userError("This command must be run in a countdown channel or a server with a countdown channel")
	}
	c, err := h.contextCountdown(req.msg, req.prefix)
	if err != nil {
		return err
	}

	key := strings.ToLower(req.arg(0))
	if key == "" {
		snap := c.Snapshot()
		prefixes := snap.Settings.Prefixes
		if len(prefixes) == 0 {
			prefixes = h.cfg.DefaultPrefixes
		}
		h.send(req.s, req.msg.ChannelID, ConfigEmbed(c.ID(), snap.Settings, prefixes, snap.TriggerNumbers()))
		return nil
	}
	if !IsAdmin(req.s, req.msg.Author.ID, req.msg.ChannelID) {
		return userError("You must be an administrator to modify settings")
	}
	values := req.args[1:]
	if len(values) == 0 {
		return userError("Please provide a value for the setting")
	}

	var reply string
	switch key {
	case "tz", "timezone":
		offset, err := strconv.ParseFloat(values[0], 64)
		if err != nil || math.IsNaN(offset) || math.Abs(offset) > 24 {
			return userError(fmt.Sprintf("Invalid timezone: `%s`", values[0]))
		}
		if err := h.repo.SetTimezone(ctx, c.ID(), offset); err != nil {
			return err
		}
		c.SetTimezone(offset)
		reply = "Timezone set to " + FormatOffset(offset)
	case "prefix", "prefixes":
		prefixes := make([]string, 0, len(values))
		for _, v := range values {
			if p := cleanText(v); p != "" {
				prefixes = append(prefixes, p)
			}
		}
		if err := h.repo.SetPrefixes(ctx, c.ID(), prefixes); err != nil {
			return err
		}
		c.SetPrefixes(prefixes)
		reply = "Prefixes updated"
	case "react":
		number, err := strconv.ParseInt(values[0], 10, 64)
		if err != nil {
			return userError(fmt.Sprintf("Invalid number: `%s`", values[0]))
		}
		if number < 0 {
			return userError("Number must be greater than zero")
		}
		tokens := make([]string, 0, len(values)-1)
		for _, v := range values[1:] {
			if tok := reactionToken(v); tok != "" {
				tokens = append(tokens, tok)
			}
		}
		if err := h.repo.SetReactions(ctx, c.ID(), number, tokens); err != nil {
			return err
		}
		c.SetTriggers(number, tokens)
		if len(tokens) == 0 {
			reply = fmt.Sprintf("Removed reactions for #%d", number)
		} else {
			reply = fmt.Sprintf("Updated reactions for #%d", number)
		}
	default:
		return userError(fmt.Sprintf("Setting not found: `%s`", key))
	}
	h.send(req.s, req.msg.ChannelID, StatusEmbed(":gear: Countdown Settings", reply))
	return nil
}

func (h *Handler) analytics(req request) error {
	c, err := h.contextCountdown(req.msg, req.prefix)
	if err != nil {
		return err
	}
	if !h.limiter.CanUse(req.msg.Author.ID) {
		wait := h.limiter.TimeUntilNext(req.msg.Author.ID).Round(time.Second)
		return userError(fmt.Sprintf("Please wait %s before using this command again.", wait))
	}

	snap := c.Snapshot()
	if req.name != CommandAnalytics {
		embed, err := h.view(snap, req.name, req.args)
		if err != nil {
			return err
		}
		h.send(req.s, req.msg.ChannelID, embed)
		return nil
	}

	for _, step := range analyticsOrder {
		embed, err := h.view(snap, step.name, step.args)
		if err != nil {
			return err
		}
		h.send(req.s, req.msg.ChannelID, embed)
	}
	return nil
}

// view renders one statistics view of a snapshot.
func (h *Handler) view(snap countdown.Snapshot, name string, args []string) (*discordgo.MessageEmbed, error) {
	now := h.now()
	loc := countdown.Location(snap.Settings.TimezoneOffsetHours)
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	switch name {
	case CommandProgress:
		st, err := snap.Progress(now)
		if err != nil {
			return nil, err
		}
		return ProgressEmbed(snap.ID, st, loc, now), nil

	case CommandLeaderboard:
		if arg == "" {
			board, err := snap.Leaderboard(h.scorer)
			if err != nil {
				return nil, err
			}
			return LeaderboardEmbed(snap.ID, board, h.scorer), nil
		}
		author, err := contributorArg(arg)
		if err != nil {
			return nil, err
		}
		entry, err := snap.Standing(h.scorer, author)
		if err != nil {
			return nil, contributorError(err, arg)
		}
		return StandingEmbed(snap.ID, entry, h.scorer), nil

	case CommandSpeed:
		period, err := periodArg(arg)
		if err != nil {
			return nil, err
		}
		buckets, err := snap.Speed(period)
		if err != nil {
			return nil, err
		}
		return SpeedEmbed(snap.ID, period, buckets), nil

	case CommandETA:
		period, err := periodArg(arg)
		if err != nil {
			return nil, err
		}
		points, err := snap.ETA(period, now)
		if err != nil {
			return nil, err
		}
		st, err := snap.Progress(now)
		if err != nil {
			return nil, err
		}
		return ETAEmbed(snap.ID, points, st, loc, now), nil

	case CommandHeatmap:
		author := ""
		if arg != "" {
			var err error
			if author, err = contributorArg(arg); err != nil {
				return nil, err
			}
		}
		hm, err := snap.Heatmap(author)
		if err != nil {
			return nil, contributorError(err, arg)
		}
		return HeatmapEmbed(snap.ID, author, countdown.SummarizeHeatmap(hm, snap.Settings.TimezoneOffsetHours, now)), nil

	case CommandContributors:
		switch strings.ToLower(arg) {
		case "":
			list, err := snap.Contributors()
			if err != nil {
				return nil, err
			}
			return ContributorsEmbed(snap.ID, list), nil
		case "h", "history":
			history, err := snap.HistoricalContributors()
			if err != nil {
				return nil, err
			}
			last, _ := snap.Last()
			return ContributorHistoryEmbed(snap.ID, history, snap.Messages[0].Number-last.Number), nil
		default:
			return nil, userError(fmt.Sprintf("Unrecognized option: `%s`", arg))
		}
	}
	return nil, fmt.Errorf("discord: no view for %s", name)
}

func contributorArg(arg string) (string, error) {
	id, ok := mentionedUser(arg)
	if !ok {
		return "", userError(fmt.Sprintf("Contributor not found: `%s`", arg))
	}
	return id, nil
}

func contributorError(err error, arg string) error {
	if errors.Is(err, countdown.ErrContributorNotFound) {
		return userError(fmt.Sprintf("Contributor not found: `%s`", arg))
	}
	return err
}

// periodArg parses a period in whole hours, defaulting to a day.
func periodArg(arg string) (time.Duration, error) {
	if arg == "" {
		return 24 * time.Hour, nil
	}
	hours, err := strconv.Atoi(arg)
	if err != nil {
		return 0, userError(fmt.Sprintf("Invalid number: `%s`", arg))
	}
	if hours <= 0 {
		return 0, countdown.ErrInvalidPeriod
	}
	return time.Duration(hours) * time.Hour, nil
}
