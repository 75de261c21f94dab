package countdown

import "sort"

// Contributor is an author's share of a countdown.
type Contributor struct {
	AuthorID      string
	Contributions int64
	Percentage    float64
}

// Contributors ranks authors by message count, earliest contributor first on ties.
func Contributors(msgs []Message) ([]Contributor, error) {
	if len(msgs) == 0 {
		return nil, ErrEmptyCountdown
	}

	index := make(map[string]int)
	var out []Contributor
	for _, m := range msgs {
		i, ok := index[m.AuthorID]
		if !ok {
			i = len(out)
			index[m.AuthorID] = i
			out = append(out, Contributor{AuthorID: m.AuthorID})
		}
		out[i].Contributions++
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Contributions > out[j].Contributions
	})
	for i := range out {
		out[i].Percentage = float64(out[i].Contributions) / float64(len(msgs)) * 100
	}
	return out, nil
}

// SharePoint is an author's cumulative share of all messages at one step of the countdown.
type SharePoint struct {
	// Progress is how many numbers had been counted down: total minus the number posted.
	Progress   int64
	Percentage float64
}

// ContributorHistory is one author's share over the life of a countdown.
type ContributorHistory struct {
	AuthorID string
	Points   []SharePoint
}

// HistoricalContributors replays the countdown and, after every message, records the
// cumulative share of every author seen so far. Each author's series starts at their
// first message. Authors are ordered as in Contributors.
func HistoricalContributors(msgs []Message) ([]ContributorHistory, error) {
	ranking, err := Contributors(msgs)
	if err != nil {
		return nil, err
	}

	total := msgs[0].Number
	counts := make(map[string]int64, len(ranking))
	series := make(map[string][]SharePoint, len(ranking))
	var tracked []string
	for i, m := range msgs {
		if _, ok := counts[m.AuthorID]; !ok {
			tracked = append(tracked, m.AuthorID)
		}
		counts[m.AuthorID]++
		seen := float64(i + 1)
		for _, author := range tracked {
			series[author] = append(series[author], SharePoint{
				Progress:   total - m.Number,
				Percentage: float64(counts[author]) / seen * 100,
			})
		}
	}

	out := make([]ContributorHistory, len(ranking))
	for i, c := range ranking {
		out[i] = ContributorHistory{AuthorID: c.AuthorID, Points: series[c.AuthorID]}
	}
	return out, nil
}
