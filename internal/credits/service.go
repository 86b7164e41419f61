package credits

import "context"

type store interface {
	Get(ctx context.Context, userID string) (Snapshot, error)
	EnsurePeriod(ctx context.Context, userID string) (Snapshot, error)
	Consume(ctx context.Context, userID string, cat Category, n int) (Snapshot, error)
	Reset(ctx context.Context, userID string) (Snapshot, error)
	SetPlan(ctx context.Context, userID, plan string, unlimited bool) (Snapshot, error)
	SweepExpired(ctx context.Context) (int, error)
}

// Service manages credit balances via an underlying store.
type Service struct {
	store store
}

// NewService constructs a Service with in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// Get returns the current snapshot for a user, initializing defaults if absent.
func (s *Service) Get(ctx context.Context, userID string) (Snapshot, error) {
	return s.store.Get(ctx, userID)
}

// EnsurePeriod resets balances if the period has expired.
func (s *Service) EnsurePeriod(ctx context.Context, userID string) (Snapshot, error) {
	return s.store.EnsurePeriod(ctx, userID)
}

// CanConsume reports whether the user can spend n credits from cat, counting
// the universal balance as backup.
func (s *Service) CanConsume(ctx context.Context, userID string, cat Category, n int) (bool, Snapshot, error) {
	if !validCategory(cat) {
		return false, Snapshot{}, ErrUnknownCategory
	}
	snap, err := s.store.EnsurePeriod(ctx, userID)
	if err != nil {
		return false, Snapshot{}, err
	}
	if n <= 0 || snap.Unlimited {
		return true, snap, nil
	}
	available := snap.Balances[cat].Remaining
	if cat != CategoryUniversal {
		available += snap.Balances[CategoryUniversal].Remaining
	}
	if available < n {
		return false, snap, nil
	}
	return true, snap, nil
}

// Consume debits n credits from cat, drawing on the universal balance when the
// category runs out. Unlimited plans are never debited.
func (s *Service) Consume(ctx context.Context, userID string, cat Category, n int) (Snapshot, error) {
	if !validCategory(cat) {
		return Snapshot{}, ErrUnknownCategory
	}
	return s.store.Consume(ctx, userID, cat, n)
}

// Reset restores every balance to its cap and restarts the window.
func (s *Service) Reset(ctx context.Context, userID string) (Snapshot, error) {
	return s.store.Reset(ctx, userID)
}

// SetPlan records the user's plan name and unlimited flag, refilling balances.
func (s *Service) SetPlan(ctx context.Context, userID, plan string, unlimited bool) (Snapshot, error) {
	return s.store.SetPlan(ctx, userID, plan, unlimited)
}

// SweepExpired refills every account whose window has lapsed and reports how
// many were touched.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	return s.store.SweepExpired(ctx)
}

// debitOrder decides how n credits split between cat and the universal bucket
// given the remaining balances. It is shared by the store implementations.
func debitOrder(balances map[Category]Balance, cat Category, n int) (fromCategory, fromUniversal int, ok bool) {
	remaining := balances[cat].Remaining
	if remaining >= n {
		return n, 0, true
	}
	if cat == CategoryUniversal {
		return 0, 0, false
	}
	shortfall := n - remaining
	if balances[CategoryUniversal].Remaining < shortfall {
		return 0, 0, false
	}
	return remaining, shortfall, true
}
