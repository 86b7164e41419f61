package resumes

import (
	"context"
	"encoding/json"
)

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "resume draft not found" }

// DraftRepo stores the draft payload verbatim. Last write wins.
type DraftRepo interface {
	Put(ctx context.Context, userID string, draft json.RawMessage) error
	Get(ctx context.Context, userID string) (json.RawMessage, error)
}

// ScoresRepo stores analysis scores for dashboard history.
type ScoresRepo interface {
	Create(ctx context.Context, score Score) error
	Latest(ctx context.Context, userID string) (Score, error)
}
