package missions

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Mission
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Mission)}
}

func (r *MemoryRepo) Put(ctx context.Context, mission Mission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mission.UpdatedAt = time.Now().UTC()
	r.mu.Lock()
	r.data[mission.UserID] = mission
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID string) (Mission, error) {
	if err := ctx.Err(); err != nil {
		return Mission{}, err
	}
	r.mu.RLock()
	mission, ok := r.data[userID]
	r.mu.RUnlock()
	if !ok {
		return Mission{}, ErrNotFound
	}
	return mission, nil
}
