package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/stake-plus/countdown/src/config"
	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stake-plus/countdown/src/data"
)

var (
	statsTop    int
	statsPrimes bool
)

var statsCmd = &cobra.Command{
	Use:   "stats <countdown-id>",
	Short: "Replay a stored countdown and print its progress and leaderboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsTop < 0 {
			return fmt.Errorf("stats: --top must not be negative, got %d", statsTop)
		}
		log, db, err := setup()
		if log != nil {
			defer func() { _ = log.Sync() }()
		}
		if err != nil {
			return err
		}
		stored, err := data.NewRepository(db).LoadCountdown(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		primes := statsPrimes
		if !cmd.Flags().Changed("primes") {
			primes = config.LoadBot(db).PrimeRule
		}
		return printStats(cmd.OutOrStdout(), args[0], stored, countdown.NewScorer(primes), statsTop, time.Now())
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "Leaderboard rows to print")
	statsCmd.Flags().BoolVar(&statsPrimes, "primes", true, "Score prime numbers")
}

func printStats(w io.Writer, id string, stored data.StoredCountdown, scorer *countdown.Scorer, top int, now time.Time) error {
	c := countdown.New(id, stored.Settings)
	res := c.Restore(stored.Messages)
	snap := c.Snapshot()

	fmt.Fprintf(w, "countdown %s: %s messages restored, %s dropped\n", id, humanize.Comma(int64(res.Accepted)), humanize.Comma(int64(res.Rejected)))
	st, err := snap.Progress(now)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "progress: %s / %s (%.1f%%), %.1f per day\n",
		humanize.Comma(st.Total-st.Current), humanize.Comma(st.Total), st.Percentage, st.Rate)
	if st.Complete {
		fmt.Fprintf(w, "finished: %s\n", st.ETA.Format(time.RFC3339))
	} else {
		fmt.Fprintf(w, "estimated end: %s (%s)\n", st.ETA.Format(time.RFC3339), humanize.RelTime(st.ETA, now, "ago", "from now"))
	}

	board, err := snap.Leaderboard(scorer)
	if err != nil {
		return err
	}
	for _, e := range board[:min(len(board), max(top, 0))] {
		fmt.Fprintf(w, "%3d. %-20s %10s points %8s numbers\n", e.Rank, e.AuthorID, humanize.Comma(e.Points), humanize.Comma(e.Contributions))
	}
	return nil
}
