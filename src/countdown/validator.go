package countdown

// validate checks a candidate against the last accepted message. A nil last means the
// countdown is empty and anything is accepted; that first message fixes the total.
func validate(last *Message, c Candidate) (RejectKind, int64) {
	if last == nil {
		return RejectNone, 0
	}
	expected := last.Number - 1
	if c.AuthorID == last.AuthorID {
		return RejectSameAuthor, expected
	}
	if c.Number != expected {
		return RejectWrongNumber, expected
	}
	return RejectNone, expected
}

// signalsFor derives the side effects of accepting number in a countdown that started at total.
func signalsFor(total, number int64, triggers map[int64][]string) Signals {
	sig := Signals{Celebrate: number == 0}
	if tokens, ok := triggers[number]; ok && len(tokens) > 0 {
		sig.Triggers = append([]string(nil), tokens...)
	}
	if total >= PinMinimumTotal {
		if step := total / PinDivisions; step > 0 && number%step == 0 {
			sig.PinWorthy = true
		}
	}
	return sig
}

// appendLocked runs the state machine against msgs and returns the new sequence.
// Callers hold the countdown lock.
func appendLocked(countdownID string, msgs []Message, c Candidate, triggers map[int64][]string) ([]Message, Outcome) {
	var last *Message
	if len(msgs) > 0 {
		last = &msgs[len(msgs)-1]
	}

	kind, expected := validate(last, c)
	if kind != RejectNone {
		return msgs, Outcome{Reject: kind, Expected: expected}
	}

	msg := Message{
		ID:          c.ID,
		CountdownID: countdownID,
		AuthorID:    c.AuthorID,
		Timestamp:   c.Timestamp.UTC(),
		Number:      c.Number,
	}
	total := c.Number
	if last != nil {
		total = msgs[0].Number
	}

	return append(msgs, msg), Outcome{
		Accepted: true,
		Message:  msg,
		Expected: expected,
		Signals:  signalsFor(total, c.Number, triggers),
	}
}
