package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimes(t *testing.T) {
	assert.Empty(t, Primes(2))
	assert.Equal(t, PrimeSet{2}, Primes(3))
	assert.Equal(t, PrimeSet{2, 3}, Primes(5))
	assert.Equal(t, PrimeSet{2, 3, 5, 7, 11, 13, 17, 19}, Primes(20))
	assert.Equal(t, PrimeSet{2, 3, 5, 7, 11, 13, 17, 19, 23}, Primes(24))

	big := Primes(10000)
	assert.Len(t, big, 1229)
	assert.True(t, big.Contains(9973))
	assert.False(t, big.Contains(9999))
}

func TestClassify(t *testing.T) {
	const total = 5000
	plain := NewScorer(false)
	withPrimes := NewScorer(true)
	primes := Primes(total)

	tests := []struct {
		number int64
		plain  Category
		primes Category
	}{
		{5000, CategoryFirst, CategoryFirst},
		{4000, Category1000s, Category1000s},
		{0, Category1000s, Category1000s},
		{3001, Category1001s, Category1001s},
		{1, Category1001s, Category1001s},
		{2800, Category200s, Category200s},
		{2601, Category201s, Category201s},
		{2700, Category100s, Category100s},
		{2501, Category101s, Category101s},
		{2999, CategoryOdd, CategoryPrime},
		{97, CategoryOdd, CategoryPrime},
		{2, CategoryEven, CategoryPrime},
		{99, CategoryOdd, CategoryOdd},
		{98, CategoryEven, CategoryEven},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.plain, plain.Classify(tt.number, total, nil).Category, "plain %d", tt.number)
		assert.Equal(t, tt.primes, withPrimes.Classify(tt.number, total, primes).Category, "primes %d", tt.number)
	}
}

func TestRulesOrder(t *testing.T) {
	var cats []Category
	for _, r := range NewScorer(true).Rules() {
		cats = append(cats, r.Category)
	}
	assert.Equal(t, []Category{
		CategoryFirst, Category1000s, Category1001s, Category200s, Category201s,
		Category100s, Category101s, CategoryPrime, CategoryOdd, CategoryEven,
	}, cats)

	assert.Len(t, NewScorer(false).Rules(), 9)
	assert.EqualValues(t, 1000, NewScorer(false).Value(Category1000s))
	assert.Zero(t, NewScorer(false).Value(CategoryPrime))
}

func TestLeaderboardFullCountdown(t *testing.T) {
	msgs := sequence(1000, 0, time.Minute, "A", "B", "C")
	scorer := NewScorer(true)

	board, err := scorer.Leaderboard(msgs)
	require.NoError(t, err)
	require.Len(t, board, 3)

	var contributions int64
	for i, e := range board {
		assert.Equal(t, i+1, e.Rank)
		var points int64
		for cat, n := range e.Breakdown {
			points += n * scorer.Value(cat)
		}
		assert.Equal(t, points, e.Points, e.AuthorID)
		contributions += e.Contributions
		if i > 0 {
			assert.GreaterOrEqual(t, board[i-1].Points, e.Points)
		}
	}
	assert.EqualValues(t, len(msgs), contributions)

	// 1000 was the first number, so it scores nothing instead of the 1000s bonus
	first, err := scorer.Standing(msgs, "A")
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.Breakdown[CategoryFirst])

	// 0 is posted by the author of index 1000, which is "B"
	zero, err := scorer.Standing(msgs, "B")
	require.NoError(t, err)
	assert.EqualValues(t, 1, zero.Breakdown[Category1000s])
}

func TestLeaderboardTieBreakIsFirstContribution(t *testing.T) {
	msgs := []Message{
		{AuthorID: "X", Number: 100},
		{AuthorID: "zed", Number: 50},
		{AuthorID: "amy", Number: 48},
	}
	board, err := NewScorer(false).Leaderboard(msgs)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, "zed", board[0].AuthorID)
	assert.Equal(t, "amy", board[1].AuthorID)
	assert.Equal(t, board[0].Points, board[1].Points)
	assert.Equal(t, "X", board[2].AuthorID)
	assert.InDelta(t, 100.0/3, board[2].Percentage, 1e-9)
}

func TestLeaderboardEmpty(t *testing.T) {
	_, err := NewScorer(false).Leaderboard(nil)
	require.ErrorIs(t, err, ErrEmptyCountdown)
}

func TestStandingUnknownAuthor(t *testing.T) {
	_, err := NewScorer(false).Standing(sequence(10, 5, time.Minute), "nobody")
	require.ErrorIs(t, err, ErrContributorNotFound)
}
