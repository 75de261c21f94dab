package countdown

import (
	"fmt"
	"math"
	"time"
)

// Location returns a fixed zone for a UTC offset in (possibly fractional) hours.
func Location(offsetHours float64) *time.Location {
	seconds := int(math.Round(offsetHours * 3600))
	sign := "+"
	if seconds < 0 {
		sign = "-"
	}
	abs := math.Abs(offsetHours)
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, int(abs), int(math.Round((abs-math.Floor(abs))*60))), seconds)
}

// periodAnchor is where period buckets start counting from: Monday 1 January 2018,
// midnight in the countdown's own timezone.
func periodAnchor(loc *time.Location) time.Time {
	return time.Date(2018, time.January, 1, 0, 0, 0, 0, loc)
}

// SpeedBucket counts the messages posted in one period.
type SpeedBucket struct {
	Start    time.Time
	Messages int
}

// Speed buckets messages into fixed width periods in the countdown's timezone. Only
// periods that contain at least one message are returned, oldest first.
func Speed(msgs []Message, period time.Duration, offsetHours float64) ([]SpeedBucket, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(msgs) == 0 {
		return nil, ErrEmptyCountdown
	}

	loc := Location(offsetHours)
	start := periodAnchor(loc)
	var buckets []SpeedBucket
	for _, m := range msgs {
		ts := m.Timestamp.In(loc)
		// periods only move forward, so anything before the anchor lands in the first one
		if elapsed := ts.Sub(start); elapsed >= period {
			start = start.Add(elapsed / period * period)
		}
		if n := len(buckets); n == 0 || !buckets[n-1].Start.Equal(start) {
			buckets = append(buckets, SpeedBucket{Start: start})
		}
		buckets[len(buckets)-1].Messages++
	}
	return buckets, nil
}

// SpeedSummary describes a speed histogram.
type SpeedSummary struct {
	Record  int
	Average float64
	Last    SpeedBucket
}

// SummarizeSpeed reports the record, average and most recent period of a histogram.
func SummarizeSpeed(buckets []SpeedBucket) SpeedSummary {
	if len(buckets) == 0 {
		return SpeedSummary{}
	}
	var sum int
	out := SpeedSummary{Last: buckets[len(buckets)-1]}
	for _, b := range buckets {
		sum += b.Messages
		if b.Messages > out.Record {
			out.Record = b.Messages
		}
	}
	out.Average = float64(sum) / float64(len(buckets))
	return out
}

// maxETAPoints bounds the series ETA will build for a single query.
const maxETAPoints = 100000

// ETAPoint is the completion estimate as it looked at Time.
type ETAPoint struct {
	Time time.Time
	ETA  time.Time
}

// ETA replays the countdown period by period and projects a completion time at the end of
// each one from the progress made so far. The series starts at the first message and ends
// with the live estimate from Progress, at the last message for finished countdowns and at
// now otherwise. Periods before any progress was made have no projection and are skipped.
func ETA(msgs []Message, period time.Duration, offsetHours float64, now time.Time) ([]ETAPoint, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(msgs) < 2 {
		return nil, ErrNotEnoughMessages
	}

	progress, err := Progress(msgs, now)
	if err != nil {
		return nil, err
	}

	loc := Location(offsetHours)
	start := msgs[0].Timestamp.In(loc)
	end := now.In(loc)
	if progress.Complete {
		end = msgs[len(msgs)-1].Timestamp.In(loc)
	}

	if end.Sub(start)/period > maxETAPoints {
		return nil, fmt.Errorf("%s over %s: %w", period, end.Sub(start), ErrInvalidPeriod)
	}

	points := []ETAPoint{{Time: start, ETA: start}}
	idx := 0
	for periodEnd := start.Add(period); periodEnd.Before(end); periodEnd = periodEnd.Add(period) {
		for idx+1 < len(msgs) && msgs[idx+1].Timestamp.Before(periodEnd) {
			idx++
		}
		done := float64(progress.Total - msgs[idx].Number)
		if done <= 0 {
			continue
		}
		rate := done / days(periodEnd.Sub(start))
		points = append(points, ETAPoint{
			Time: periodEnd,
			ETA:  addDays(periodEnd, float64(msgs[idx].Number)/rate),
		})
	}

	return append(points, ETAPoint{Time: end, ETA: progress.ETA.In(loc)}), nil
}
