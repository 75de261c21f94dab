package data

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/countdown/src/countdown"
)

// StreamEvents is the Redis stream countdown events are appended to.
const StreamEvents = "countdown.events"

// EventType names what happened to a countdown.
type EventType string

const (
	EventAccepted    EventType = "accepted"
	EventRejected    EventType = "rejected"
	EventCelebrate   EventType = "celebrate"
	EventPin         EventType = "pin"
	EventTriggers    EventType = "triggers"
	EventReloaded    EventType = "reloaded"
	EventActivated   EventType = "activated"
	EventDeactivated EventType = "deactivated"
)

// Event is one entry on the countdown stream.
type Event struct {
	ID          string
	Type        EventType
	CountdownID string
	MessageID   string
	AuthorID    string
	Number      int64
	Detail      string
	Time        time.Time
}

// Publisher receives countdown events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// OutcomeEvents expands a TryAppend outcome into the events it produces: one accepted
// or rejected event, followed by one event per raised signal.
func OutcomeEvents(countdownID string, cand countdown.Candidate, out countdown.Outcome, at time.Time) []Event {
	base := Event{
		CountdownID: countdownID,
		MessageID:   cand.ID,
		AuthorID:    cand.AuthorID,
		Number:      cand.Number,
		Time:        at,
	}
	if !out.Accepted {
		ev := base
		ev.Type = EventRejected
		ev.Detail = out.Reject.String()
		if out.Reject == countdown.RejectWrongNumber {
			ev.Detail += ":" + strconv.FormatInt(out.Expected, 10)
		}
		return []Event{ev}
	}

	events := []Event{withType(base, EventAccepted, "")}
	if out.Signals.Celebrate {
		events = append(events, withType(base, EventCelebrate, ""))
	}
	if out.Signals.PinWorthy {
		events = append(events, withType(base, EventPin, ""))
	}
	if len(out.Signals.Triggers) > 0 {
		events = append(events, withType(base, EventTriggers, strings.Join(out.Signals.Triggers, " ")))
	}
	return events
}

func withType(ev Event, t EventType, detail string) Event {
	ev.Type = t
	ev.Detail = detail
	return ev
}

// RedisPublisher appends events to a Redis stream.
type RedisPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

// NewRedisPublisher publishes to StreamEvents, trimming it to roughly maxLen entries.
// maxLen <= 0 disables trimming.
func NewRedisPublisher(rdb *redis.Client, maxLen int64) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, stream: StreamEvents, maxLen: maxLen}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"id":        ev.ID,
			"type":      string(ev.Type),
			"countdown": ev.CountdownID,
			"message":   ev.MessageID,
			"author":    ev.AuthorID,
			"number":    ev.Number,
			"detail":    ev.Detail,
			"time":      ev.Time.UTC().Format(time.RFC3339Nano),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", ev.Type, err)
	}
	return nil
}

// NopPublisher drops every event. It is used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
