package credits

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]Snapshot
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Snapshot)}
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	out.Balances = make(map[Category]Balance, len(s.Balances))
	for cat, b := range s.Balances {
		out.Balances[cat] = b
	}
	return out
}

func (s *memoryStore) Get(ctx context.Context, userID string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	snap, ok := s.data[userID]
	s.mu.RUnlock()
	if ok {
		return cloneSnapshot(snap), nil
	}
	return s.ensure(ctx, userID)
}

func (s *memoryStore) EnsurePeriod(ctx context.Context, userID string) (Snapshot, error) {
	return s.ensure(ctx, userID)
}

func (s *memoryStore) ensure(ctx context.Context, userID string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSnapshot(s.ensureLocked(userID)), nil
}

func (s *memoryStore) ensureLocked(userID string) Snapshot {
	now := time.Now().UTC()
	snap, ok := s.data[userID]
	if !ok {
		snap = defaultSnapshot()
	}
	if !now.Before(snap.ResetsAt) {
		for cat, b := range snap.Balances {
			b.Remaining = b.Cap
			snap.Balances[cat] = b
		}
		snap.ResetsAt = now.Add(periodLength)
	}
	s.data[userID] = snap
	return snap
}

func (s *memoryStore) Consume(ctx context.Context, userID string, cat Category, n int) (Snapshot, error) {
	if n <= 0 {
		return s.ensure(ctx, userID)
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.ensureLocked(userID)
	if snap.Unlimited {
		return cloneSnapshot(snap), nil
	}
	fromCat, fromUni, ok := debitOrder(snap.Balances, cat, n)
	if !ok {
		return Snapshot{}, ErrInsufficientCredits
	}
	b := snap.Balances[cat]
	b.Remaining -= fromCat
	snap.Balances[cat] = b
	if fromUni > 0 {
		u := snap.Balances[CategoryUniversal]
		u.Remaining -= fromUni
		snap.Balances[CategoryUniversal] = u
	}
	s.data[userID] = snap
	return cloneSnapshot(snap), nil
}

func (s *memoryStore) Reset(ctx context.Context, userID string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.data[userID]
	if !ok {
		snap = defaultSnapshot()
	}
	for cat, b := range snap.Balances {
		b.Remaining = b.Cap
		snap.Balances[cat] = b
	}
	snap.ResetsAt = now.Add(periodLength)
	s.data[userID] = snap
	return cloneSnapshot(snap), nil
}

func (s *memoryStore) SetPlan(ctx context.Context, userID, plan string, unlimited bool) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.ensureLocked(userID)
	snap.Plan = plan
	snap.Unlimited = unlimited
	for cat, b := range snap.Balances {
		b.Remaining = b.Cap
		snap.Balances[cat] = b
	}
	snap.ResetsAt = time.Now().UTC().Add(periodLength)
	s.data[userID] = snap
	return cloneSnapshot(snap), nil
}

func (s *memoryStore) SweepExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	swept := 0
	for userID, snap := range s.data {
		if now.Before(snap.ResetsAt) {
			continue
		}
		for cat, b := range snap.Balances {
			b.Remaining = b.Cap
			snap.Balances[cat] = b
		}
		snap.ResetsAt = now.Add(periodLength)
		s.data[userID] = snap
		swept++
	}
	return swept, nil
}
