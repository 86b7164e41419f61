package missions

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "mission not found" }

type Repo interface {
	Put(ctx context.Context, mission Mission) error
	Get(ctx context.Context, userID string) (Mission, error)
}
