package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"github.com/stake-plus/countdown/src/countdown"
	"github.com/stake-plus/countdown/src/data"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source is where persisted countdowns are read from.
type Source interface {
	ListCountdowns(ctx context.Context) ([]data.Countdown, error)
	LoadCountdown(ctx context.Context, id string) (data.StoredCountdown, error)
}

// Summary counts what hydration restored.
type Summary struct {
	Countdowns int
	Accepted   int
	Rejected   int
}

// Hydrate restores every persisted countdown into store, loading up to workers countdowns
// at once. Stored messages are revalidated; ones that no longer fit are dropped and counted
// as rejected.
func Hydrate(ctx context.Context, log *zap.Logger, src Source, store *countdown.Store, workers int) (Summary, error) {
	log = log.Named("bootstrap")
	rows, err := src.ListCountdowns(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("bootstrap: %w", err)
	}
	if workers <= 0 {
		workers = 4
	}

	var (
		mu  sync.Mutex
		sum Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, row := range rows {
		g.Go(func() error {
			stored, err := src.LoadCountdown(gctx, row.ID)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			c, err := store.Create(row.ID, stored.Settings)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			res := c.Restore(stored.Messages)
			if res.Rejected > 0 {
				log.Warn("dropped stored messages that no longer validate",
					zap.String("countdown", row.ID), zap.Int("rejected", res.Rejected))
			}

			mu.Lock()
			sum.Countdowns++
			sum.Accepted += res.Accepted
			sum.Rejected += res.Rejected
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sum, err
	}
	return sum, nil
}
