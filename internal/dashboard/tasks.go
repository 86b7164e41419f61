package dashboard

import (
	"context"
	"database/sql"
	"sync"
)

// TasksRepo counts a user's open tasks.
type TasksRepo interface {
	CountActive(ctx context.Context, userID string) (int, error)
}

type PGTasksRepo struct {
	DB *sql.DB
}

func (r *PGTasksRepo) CountActive(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = 'active'`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type MemoryTasksRepo struct {
	mu     sync.RWMutex
	counts map[string]int
}

func NewMemoryTasksRepo() *MemoryTasksRepo {
	return &MemoryTasksRepo{counts: make(map[string]int)}
}

func (r *MemoryTasksRepo) SetActive(userID string, count int) {
	r.mu.Lock()
	r.counts[userID] = count
	r.mu.Unlock()
}

func (r *MemoryTasksRepo) CountActive(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counts[userID], nil
}
