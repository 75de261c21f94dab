package countdown

import (
	"fmt"
	"time"
)

// Heatmap counts messages by local weekday (Sunday = 0) and hour of day.
type Heatmap [7][24]int

// Total returns the number of messages in the heatmap.
func (h Heatmap) Total() int {
	var n int
	for _, row := range h {
		for _, v := range row {
			n += v
		}
	}
	return n
}

// BuildHeatmap counts messages in the countdown's timezone. A non-empty authorID limits the
// count to that author.
func BuildHeatmap(msgs []Message, offsetHours float64, authorID string) (Heatmap, error) {
	var h Heatmap
	if len(msgs) == 0 {
		return h, ErrEmptyCountdown
	}

	loc := Location(offsetHours)
	found := false
	for _, m := range msgs {
		if authorID != "" && m.AuthorID != authorID {
			continue
		}
		found = true
		ts := m.Timestamp.In(loc)
		h[ts.Weekday()][ts.Hour()]++
	}
	if !found {
		return h, fmt.Errorf("heatmap %s: %w", authorID, ErrContributorNotFound)
	}
	return h, nil
}

// HeatmapSummary highlights the busiest zone and the zone the countdown is in right now.
type HeatmapSummary struct {
	Total        int
	Average      float64
	BestDay      time.Weekday
	BestHour     int
	BestValue    int
	CurrentDay   time.Weekday
	CurrentHour  int
	CurrentValue int
}

// SummarizeHeatmap reports the busiest zone (earliest on ties) and the zone containing now.
func SummarizeHeatmap(h Heatmap, offsetHours float64, now time.Time) HeatmapSummary {
	local := now.In(Location(offsetHours))
	out := HeatmapSummary{
		Total:       h.Total(),
		BestValue:   -1,
		CurrentDay:  local.Weekday(),
		CurrentHour: local.Hour(),
	}
	out.Average = float64(out.Total) / (7 * 24)
	out.CurrentValue = h[out.CurrentDay][out.CurrentHour]

	for d, row := range h {
		for hr, v := range row {
			if v > out.BestValue {
				out.BestDay, out.BestHour, out.BestValue = time.Weekday(d), hr, v
			}
		}
	}
	return out
}
