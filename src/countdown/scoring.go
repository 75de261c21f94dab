package countdown

import (
	"fmt"
	"sort"
)

// Category names a leaderboard scoring rule.
type Category string

const (
	CategoryFirst Category = "First Number"
	Category1000s Category = "1000s"
	Category1001s Category = "1001s"
	Category200s  Category = "200s"
	Category201s  Category = "201s"
	Category100s  Category = "100s"
	Category101s  Category = "101s"
	CategoryPrime Category = "Prime Numbers"
	CategoryOdd   Category = "Odd Numbers"
	CategoryEven  Category = "Even Numbers"
)

// Rule awards Points to numbers matching it. Only the first matching rule applies.
type Rule struct {
	Category Category
	Points   int64
	match    func(number, total int64, primes PrimeSet) bool
}

func modRule(cat Category, points, mod, rem int64) Rule {
	return Rule{
		Category: cat,
		Points:   points,
		match: func(number, _ int64, _ PrimeSet) bool {
			return number%mod == rem
		},
	}
}

func buildRules(withPrimes bool) []Rule {
	rules := []Rule{
		{
			Category: CategoryFirst,
			Points:   0,
			match: func(number, total int64, _ PrimeSet) bool {
				return number == total
			},
		},
		modRule(Category1000s, 1000, 1000, 0),
		modRule(Category1001s, 500, 1000, 1),
		modRule(Category200s, 200, 200, 0),
		modRule(Category201s, 100, 200, 1),
		modRule(Category100s, 100, 100, 0),
		modRule(Category101s, 50, 100, 1),
	}
	if withPrimes {
		rules = append(rules, Rule{
			Category: CategoryPrime,
			Points:   15,
			match: func(number, _ int64, primes PrimeSet) bool {
				return primes.Contains(number)
			},
		})
	}
	return append(rules,
		modRule(CategoryOdd, 12, 2, 1),
		Rule{
			Category: CategoryEven,
			Points:   10,
			match:    func(int64, int64, PrimeSet) bool { return true },
		},
	)
}

// Scorer classifies countdown numbers and builds leaderboards.
type Scorer struct {
	rules  []Rule
	primes bool
}

// NewScorer builds a scorer. The prime rule is optional because the game has run both
// with and without it.
func NewScorer(withPrimes bool) *Scorer {
	return &Scorer{rules: buildRules(withPrimes), primes: withPrimes}
}

// Rules returns the scoring rules in precedence order.
func (s *Scorer) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Value returns the points awarded for a category, or 0 if the scorer has no such rule.
func (s *Scorer) Value(cat Category) int64 {
	for _, r := range s.rules {
		if r.Category == cat {
			return r.Points
		}
	}
	return 0
}

// Classify returns the first rule matching number.
func (s *Scorer) Classify(number, total int64, primes PrimeSet) Rule {
	for _, r := range s.rules {
		if r.match(number, total, primes) {
			return r
		}
	}
	// unreachable: the last rule always matches
	return s.rules[len(s.rules)-1]
}

// LeaderboardEntry is one author's standing.
type LeaderboardEntry struct {
	AuthorID      string
	Rank          int
	Breakdown     map[Category]int64
	Contributions int64
	Points        int64
	// Percentage is the author's share of all messages.
	Percentage float64
}

// Leaderboard scores every message and ranks authors by points. Equal points are
// ordered by whoever contributed first.
func (s *Scorer) Leaderboard(msgs []Message) ([]LeaderboardEntry, error) {
	if len(msgs) == 0 {
		return nil, ErrEmptyCountdown
	}

	total := msgs[0].Number
	var primes PrimeSet
	if s.primes {
		primes = Primes(total)
	}

	byAuthor := make(map[string]*LeaderboardEntry)
	// order is by first contribution, which is what ties fall back to
	order := make([]*LeaderboardEntry, 0)
	for _, m := range msgs {
		entry, ok := byAuthor[m.AuthorID]
		if !ok {
			entry = &LeaderboardEntry{
				AuthorID:  m.AuthorID,
				Breakdown: make(map[Category]int64, len(s.rules)),
			}
			byAuthor[m.AuthorID] = entry
			order = append(order, entry)
		}
		rule := s.Classify(m.Number, total, primes)
		entry.Breakdown[rule.Category]++
		entry.Contributions++
		entry.Points += rule.Points
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Points > order[j].Points
	})

	out := make([]LeaderboardEntry, len(order))
	for i, e := range order {
		e.Rank = i + 1
		e.Percentage = float64(e.Contributions) / float64(len(msgs)) * 100
		out[i] = *e
	}
	return out, nil
}

// Standing returns a single author's leaderboard row.
func (s *Scorer) Standing(msgs []Message, authorID string) (LeaderboardEntry, error) {
	board, err := s.Leaderboard(msgs)
	if err != nil {
		return LeaderboardEntry{}, err
	}
	for _, e := range board {
		if e.AuthorID == authorID {
			return e, nil
		}
	}
	return LeaderboardEntry{}, fmt.Errorf("leaderboard %s: %w", authorID, ErrContributorNotFound)
}
