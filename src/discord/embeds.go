package discord

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
	"github.com/stake-plus/countdown/src/countdown"
)

const (
	colorEmbed = 0x248AD1
	colorError = 0xD52C42

	// maxRows caps table style embeds.
	maxRows  = 20
	dateOnly = "2006-01-02"
)

var hourNames = [24]string{
	"12 AM", "1 AM", "2 AM", "3 AM", "4 AM", "5 AM", "6 AM", "7 AM", "8 AM", "9 AM", "10 AM", "11 AM",
	"12 PM", "1 PM", "2 PM", "3 PM", "4 PM", "5 PM", "6 PM", "7 PM", "8 PM", "9 PM", "10 PM", "11 PM",
}

func comma(n int64) string { return humanize.Comma(n) }

func channelLine(id string) string {
	return fmt.Sprintf("**Countdown Channel:** <#%s>", id)
}

// daysBetween is the number of whole days from a to b.
func daysBetween(a, b time.Time) int64 {
	return int64(b.Sub(a) / (24 * time.Hour))
}

// FormatOffset renders a timezone offset the way the config command shows it.
func FormatOffset(offsetHours float64) string {
	if offsetHours >= 0 {
		return fmt.Sprintf("UTC+%.2f", offsetHours)
	}
	return fmt.Sprintf("UTC-%.2f", math.Abs(offsetHours))
}

func ErrorEmbed(msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: ":warning: Error", Description: msg, Color: colorError}
}

func StatusEmbed(title, msg string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: title, Description: msg, Color: colorEmbed}
}

// ProgressEmbed describes how far a countdown has come.
func ProgressEmbed(id string, st countdown.ProgressStats, loc *time.Location, now time.Time) *discordgo.MessageEmbed {
	var b strings.Builder
	b.WriteString(channelLine(id) + "\n\n")
	fmt.Fprintf(&b, "**Progress:** %s / %s (%.1f%%)\n", comma(st.Total-st.Current), comma(st.Total), st.Percentage)
	fmt.Fprintf(&b, "**Average Progress per Day:** %s\n", comma(int64(math.Round(st.Rate))))
	if st.LongestBreak.Duration > 0 {
		fmt.Fprintf(&b, "**Longest Break:** %s (%s to %s)\n", st.LongestBreak.Duration.Round(time.Second),
			st.LongestBreak.Start.In(loc).Format(dateOnly), st.LongestBreak.End.In(loc).Format(dateOnly))
	}
	fmt.Fprintf(&b, "**Start Date:** %s (%s days ago)\n", st.Start.In(loc).Format(dateOnly), comma(daysBetween(st.Start, now)))
	if st.Complete {
		fmt.Fprintf(&b, "**End Date:** %s (%s days ago)\n", st.ETA.In(loc).Format(dateOnly), comma(daysBetween(st.ETA, now)))
	} else {
		fmt.Fprintf(&b, "**Estimated End Date:** %s (%s days from now)\n", st.ETA.In(loc).Format(dateOnly), comma(daysBetween(now, st.ETA)))
	}
	return &discordgo.MessageEmbed{Title: ":chart_with_downwards_trend: Countdown Progress", Description: b.String(), Color: colorEmbed}
}

// LeaderboardEmbed lists the top authors and the scoring rules.
func LeaderboardEmbed(id string, board []countdown.LeaderboardEntry, scorer *countdown.Scorer) *discordgo.MessageEmbed {
	var ranks, points, users strings.Builder
	for _, e := range board[:min(len(board), maxRows)] {
		ranks.WriteString(comma(int64(e.Rank)) + "\n")
		points.WriteString(comma(e.Points) + "\n")
		users.WriteString("<@" + e.AuthorID + ">\n")
	}
	var names, values strings.Builder
	for _, r := range scorer.Rules() {
		names.WriteString(string(r.Category) + "\n")
		fmt.Fprintf(&values, "%d points\n", r.Points)
	}
	return &discordgo.MessageEmbed{
		Title:       ":trophy: Countdown Leaderboard",
		Description: channelLine(id),
		Color:       colorEmbed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Rank", Value: ranks.String(), Inline: true},
			{Name: "Points", Value: points.String(), Inline: true},
			{Name: "User", Value: users.String(), Inline: true},
			{Name: "Rules", Value: "Only 1 rule is applied towards each number"},
			{Name: "Numbers", Value: names.String(), Inline: true},
			{Name: "Points", Value: values.String(), Inline: true},
		},
	}
}

// StandingEmbed breaks one author's points down by category.
func StandingEmbed(id string, e countdown.LeaderboardEntry, scorer *countdown.Scorer) *discordgo.MessageEmbed {
	var b strings.Builder
	b.WriteString(channelLine(id) + "\n\n")
	fmt.Fprintf(&b, "**User:** <@%s>\n", e.AuthorID)
	fmt.Fprintf(&b, "**Rank:** #%s\n", comma(int64(e.Rank)))
	fmt.Fprintf(&b, "**Total Points:** %s\n", comma(e.Points))
	fmt.Fprintf(&b, "**Total Contributions:** %s *(%.0f%%)*\n", comma(e.Contributions), e.Percentage)

	var cats, pts, pct strings.Builder
	for _, r := range scorer.Rules() {
		n := e.Breakdown[r.Category]
		cats.WriteString(string(r.Category) + "\n")
		fmt.Fprintf(&pts, "%s *(%s)*\n", comma(n*r.Points), comma(n))
		if e.Points > 0 {
			fmt.Fprintf(&pct, "%.1f%%\n", float64(n*r.Points)/float64(e.Points)*100)
		} else {
			pct.WriteString("0%\n")
		}
	}
	return &discordgo.MessageEmbed{
		Title:       ":trophy: Countdown Leaderboard",
		Description: b.String(),
		Color:       colorEmbed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Category", Value: cats.String(), Inline: true},
			{Name: "Points", Value: pts.String(), Inline: true},
			{Name: "Percentage", Value: pct.String(), Inline: true},
		},
	}
}

// SpeedEmbed summarises a speed histogram.
func SpeedEmbed(id string, period time.Duration, buckets []countdown.SpeedBucket) *discordgo.MessageEmbed {
	sum := countdown.SummarizeSpeed(buckets)
	var b strings.Builder
	b.WriteString(channelLine(id) + "\n\n")
	fmt.Fprintf(&b, "**Period Size:** %s\n", period)
	fmt.Fprintf(&b, "**Average Progress per Period:** %s\n", comma(int64(math.Round(sum.Average))))
	fmt.Fprintf(&b, "**Record Progress per Period:** %s\n", comma(int64(sum.Record)))
	fmt.Fprintf(&b, "**Last Period Start:** %s\n", sum.Last.Start.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "**Progress during Last Period:** %s\n", comma(int64(sum.Last.Messages)))
	return &discordgo.MessageEmbed{Title: ":stopwatch: Countdown Speed", Description: b.String(), Color: colorEmbed}
}

// ETAEmbed reports the extremes of the completion estimate and the current one.
func ETAEmbed(id string, points []countdown.ETAPoint, st countdown.ProgressStats, loc *time.Location, now time.Time) *discordgo.MessageEmbed {
	maxP, minP := points[0], points[0]
	for _, p := range points[1:] {
		if p.ETA.After(maxP.ETA) {
			maxP = p
		}
		if p.ETA.Before(minP.ETA) {
			minP = p
		}
	}
	var b strings.Builder
	b.WriteString(channelLine(id) + "\n\n")
	fmt.Fprintf(&b, "**Maximum Estimate:** %s (on %s)\n", maxP.ETA.In(loc).Format(dateOnly), maxP.Time.In(loc).Format(dateOnly))
	fmt.Fprintf(&b, "**Minimum Estimate:** %s (on %s)\n", minP.ETA.In(loc).Format(dateOnly), minP.Time.In(loc).Format(dateOnly))
	if st.Complete {
		fmt.Fprintf(&b, "**Actual Completion Date:** %s (%s days ago)\n", st.ETA.In(loc).Format(dateOnly), comma(daysBetween(st.ETA, now)))
	} else {
		fmt.Fprintf(&b, "**Current Estimate:** %s (%s days from now)\n", st.ETA.In(loc).Format(dateOnly), comma(daysBetween(now, st.ETA)))
	}
	return &discordgo.MessageEmbed{Title: ":calendar: Countdown Estimated Completion Date", Description: b.String(), Color: colorEmbed}
}

// HeatmapEmbed summarises when messages are sent. authorID is empty for the whole countdown.
func HeatmapEmbed(id, authorID string, sum countdown.HeatmapSummary) *discordgo.MessageEmbed {
	var b strings.Builder
	b.WriteString(channelLine(id) + "\n\n")
	if authorID != "" {
		fmt.Fprintf(&b, "**User:** <@%s>\n", authorID)
	}
	fmt.Fprintf(&b, "**Total Contributions:** %s\n", comma(int64(sum.Total)))
	fmt.Fprintf(&b, "**Average Contributions per Zone:** %s\n", comma(int64(math.Round(sum.Average))))
	fmt.Fprintf(&b, "**Best Zone:** %s to %s on %ss - %s contributions\n",
		hourNames[sum.BestHour], hourNames[(sum.BestHour+1)%24], sum.BestDay, comma(int64(sum.BestValue)))
	fmt.Fprintf(&b, "**Current Zone:** %s to %s on %ss - %s contributions\n",
		hourNames[sum.CurrentHour], hourNames[(sum.CurrentHour+1)%24], sum.CurrentDay, comma(int64(sum.CurrentValue)))
	return &discordgo.MessageEmbed{Title: ":calendar_spiral: Countdown Heatmap", Description: b.String(), Color: colorEmbed}
}

// ContributorsEmbed lists the top contributors.
func ContributorsEmbed(id string, list []countdown.Contributor) *discordgo.MessageEmbed {
	var ranks, users, contribs strings.Builder
	for i, c := range list[:min(len(list), maxRows)] {
		ranks.WriteString(comma(int64(i+1)) + "\n")
		users.WriteString("<@" + c.AuthorID + ">\n")
		fmt.Fprintf(&contribs, "%s *(%.1f%%)*\n", comma(c.Contributions), c.Percentage)
	}
	return &discordgo.MessageEmbed{
		Title:       ":busts_in_silhouette: Countdown Contributors",
		Description: channelLine(id),
		Color:       colorEmbed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Rank", Value: ranks.String(), Inline: true},
			{Name: "User", Value: users.String(), Inline: true},
			{Name: "Contributions", Value: contribs.String(), Inline: true},
		},
	}
}

// ContributorHistoryEmbed shows how the top contributors' shares moved: their share at
// the quarter marks of the countdown so far.
func ContributorHistoryEmbed(id string, history []countdown.ContributorHistory, progress int64) *discordgo.MessageEmbed {
	marks := []int64{progress / 4, progress / 2, progress * 3 / 4, progress}
	var users, shares strings.Builder
	for _, h := range history[:min(len(history), maxRows)] {
		users.WriteString("<@" + h.AuthorID + ">\n")
		parts := make([]string, 0, len(marks))
		for _, mark := range marks {
			parts = append(parts, fmt.Sprintf("%.1f%%", shareAt(h.Points, mark)))
		}
		shares.WriteString(strings.Join(parts, " → ") + "\n")
	}
	return &discordgo.MessageEmbed{
		Title:       ":busts_in_silhouette: Countdown Contributors",
		Description: channelLine(id) + "\n\nShare of contributions at 25%, 50%, 75% and 100% of progress",
		Color:       colorEmbed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: users.String(), Inline: true},
			{Name: "Share", Value: shares.String(), Inline: true},
		},
	}
}

// shareAt is the author's share at the last point not after progress.
func shareAt(points []countdown.SharePoint, progress int64) float64 {
	var share float64
	for _, p := range points {
		if p.Progress > progress {
			break
		}
		share = p.Percentage
	}
	return share
}

// ConfigEmbed shows a countdown's settings.
func ConfigEmbed(id string, settings countdown.Settings, prefixes []string, triggerNumbers []int64) *discordgo.MessageEmbed {
	var b strings.Builder
	b.WriteString(channelLine(id) + "\n")
	fmt.Fprintf(&b, "**Command Prefixes:** `%s`\n", strings.Join(prefixes, "`, `"))
	fmt.Fprintf(&b, "**Countdown Timezone:** %s\n", FormatOffset(settings.TimezoneOffsetHours))
	if len(triggerNumbers) == 0 {
		b.WriteString("**Reactions:** none\n")
	} else {
		b.WriteString("**Reactions:**\n")
		for _, n := range triggerNumbers {
			fmt.Fprintf(&b, "**-** #%d: %s\n", n, strings.Join(settings.Triggers[n], ", "))
		}
	}
	return &discordgo.MessageEmbed{Title: ":gear: Countdown Settings", Description: b.String(), Color: colorEmbed}
}
