package orders

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/five82/courier/internal/rider"
	"github.com/five82/courier/internal/state"
)

// ActivityPageSize is the number of ledger entries fetched per page.
const ActivityPageSize = 20

// RefreshEarnings fetches the summary and the first activity page together
// and publishes both once both succeed.
func (s *Service) RefreshEarnings(ctx context.Context) error {
	if s.store.Snapshot().Network.IsOffline {
		return ErrOffline
	}

	var (
		summary  *state.EarningsSummary
		activity []state.EarningsActivity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.backend.FetchEarningsSummary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		activity, err = s.backend.FetchEarningsActivity(gctx, rider.ActivityQuery{Page: 1, Limit: ActivityPageSize})
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh earnings: %w", err)
	}

	s.store.Dispatch(state.SetEarningsSummary(summary))
	s.store.Dispatch(state.SetEarningsActivity(activity))
	return nil
}
