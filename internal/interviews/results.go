package interviews

import (
	"context"
	"time"
)

// Result is the durable record of a completed session, kept for the
// dashboard after the redis blob expires.
type Result struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	SessionID   string    `json:"sessionId"`
	Score       float64   `json:"score"`
	Turns       int       `json:"turns"`
	CompletedAt time.Time `json:"completedAt"`
}

// ScorePoint is a score with its completion time, used for aggregation.
type ScorePoint struct {
	Score       float64
	CompletedAt time.Time
}

// ResultsRepo stores completed-session records.
type ResultsRepo interface {
	Create(ctx context.Context, result Result) error
	ScoresSince(ctx context.Context, userID string, since time.Time) ([]ScorePoint, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}
