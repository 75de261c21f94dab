package countdown

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// ProgressPoint is the countdown value right after a message was accepted.
type ProgressPoint struct {
	Time   time.Time
	Number int64
}

// Break is the gap between two consecutive messages.
type Break struct {
	Duration time.Duration
	Start    time.Time
	End      time.Time
}

// ProgressStats summarises how far a countdown has come and when it will finish.
type ProgressStats struct {
	Total      int64
	Current    int64
	Percentage float64
	// Rate is the average progress per day.
	Rate     float64
	Start    time.Time
	ETA      time.Time
	Complete bool
	Points   []ProgressPoint
	// LongestBreak is zero for countdowns with fewer than two messages.
	LongestBreak Break
}

// Progress computes progress statistics at time now.
//
// A finished countdown measures its rate between the first and last message and its ETA
// is the last message. A running countdown measures up to now and projects the remaining
// numbers forward at that rate.
func Progress(msgs []Message, now time.Time) (ProgressStats, error) {
	if len(msgs) == 0 {
		return ProgressStats{}, ErrEmptyCountdown
	}

	first, last := msgs[0], msgs[len(msgs)-1]
	st := ProgressStats{
		Total:    first.Number,
		Current:  last.Number,
		Start:    first.Timestamp,
		Complete: last.Number == 0,
		ETA:      now,
		Points:   make([]ProgressPoint, len(msgs)),
	}
	if st.Total == 0 {
		st.Percentage = 100
	} else {
		st.Percentage = float64(st.Total-st.Current) / float64(st.Total) * 100
	}

	for i, m := range msgs {
		st.Points[i] = ProgressPoint{Time: m.Timestamp, Number: m.Number}
		if i == 0 {
			continue
		}
		if gap := m.Timestamp.Sub(msgs[i-1].Timestamp); gap > st.LongestBreak.Duration {
			st.LongestBreak = Break{Duration: gap, Start: msgs[i-1].Timestamp, End: m.Timestamp}
		}
	}

	if len(msgs) < 2 {
		return st, nil
	}

	end := now
	if st.Complete {
		end = last.Timestamp
	}
	if elapsed := days(end.Sub(first.Timestamp)); elapsed > 0 {
		st.Rate = float64(st.Total-st.Current) / elapsed
	}

	switch {
	case st.Complete:
		st.ETA = last.Timestamp
	case st.Rate > 0:
		st.ETA = addDays(now, float64(st.Current)/st.Rate)
	}
	return st, nil
}

func days(d time.Duration) float64 {
	return float64(d) / float64(day)
}

// addDays adds a fractional number of days, saturating instead of overflowing.
func addDays(t time.Time, n float64) time.Time {
	ns := n * float64(day)
	if ns >= math.MaxInt64 {
		return t.Add(math.MaxInt64)
	}
	return t.Add(time.Duration(ns))
}
