package interviews

import "context"

// Repo stores live session state.
type Repo interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, session *Session) error
	// Transition loads the session, applies fn, and persists the result in
	// one atomic step. If another writer changes the session between the
	// read and the write, the store returns ErrConflict and nothing is
	// written; errors from fn abort the write and pass through unchanged.
	Transition(ctx context.Context, sessionID string, fn func(*Session) error) (*Session, error)
	ListByUser(ctx context.Context, userID string) ([]string, error)
}
