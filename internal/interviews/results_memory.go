package interviews

import (
	"context"
	"sync"
	"time"
)

type MemoryResultsRepo struct {
	mu      sync.RWMutex
	results []Result
}

func NewMemoryResultsRepo() *MemoryResultsRepo {
	return &MemoryResultsRepo{}
}

func (r *MemoryResultsRepo) Create(ctx context.Context, result Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.results {
		if existing.ID == result.ID {
			return nil
		}
	}
	r.results = append(r.results, result)
	return nil
}

func (r *MemoryResultsRepo) ScoresSince(ctx context.Context, userID string, since time.Time) ([]ScorePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var points []ScorePoint
	for _, res := range r.results {
		if res.UserID != userID || res.CompletedAt.Before(since) {
			continue
		}
		points = append(points, ScorePoint{Score: res.Score, CompletedAt: res.CompletedAt})
	}
	return points, nil
}

func (r *MemoryResultsRepo) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	points, err := r.ScoresSince(ctx, userID, since)
	if err != nil {
		return 0, err
	}
	return len(points), nil
}
