package countdown

import (
	"fmt"
	"time"
)

var t0 = time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC) // a Monday

// sequence builds a valid countdown from total down to stop, alternating between authors
// and spacing messages by step.
func sequence(total, stop int64, step time.Duration, authors ...string) []Message {
	if len(authors) == 0 {
		authors = []string{"alice", "bob"}
	}
	var msgs []Message
	for i, n := 0, total; n >= stop; i, n = i+1, n-1 {
		msgs = append(msgs, Message{
			ID:          fmt.Sprintf("m%d", i),
			CountdownID: "chan",
			AuthorID:    authors[i%len(authors)],
			Timestamp:   t0.Add(time.Duration(i) * step),
			Number:      n,
		})
	}
	return msgs
}

func cand(id, author string, number int64, ts time.Time) Candidate {
	return Candidate{ID: id, AuthorID: author, Number: number, Timestamp: ts}
}
