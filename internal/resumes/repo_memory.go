package resumes

import (
	"context"
	"encoding/json"
	"sync"
)

type MemoryDraftRepo struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewMemoryDraftRepo() *MemoryDraftRepo {
	return &MemoryDraftRepo{drafts: make(map[string][]byte)}
}

func (r *MemoryDraftRepo) Put(ctx context.Context, userID string, draft json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.drafts[userID] = append([]byte(nil), draft...)
	r.mu.Unlock()
	return nil
}

func (r *MemoryDraftRepo) Get(ctx context.Context, userID string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	draft, ok := r.drafts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), draft...), nil
}

type MemoryScoresRepo struct {
	mu     sync.RWMutex
	scores map[string][]Score
}

func NewMemoryScoresRepo() *MemoryScoresRepo {
	return &MemoryScoresRepo{scores: make(map[string][]Score)}
}

func (r *MemoryScoresRepo) Create(ctx context.Context, score Score) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.scores[score.UserID] = append(r.scores[score.UserID], score)
	r.mu.Unlock()
	return nil
}

func (r *MemoryScoresRepo) Latest(ctx context.Context, userID string) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	scores := r.scores[userID]
	if len(scores) == 0 {
		return Score{}, ErrNotFound
	}
	latest := scores[0]
	for _, s := range scores[1:] {
		if s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	return latest, nil
}
