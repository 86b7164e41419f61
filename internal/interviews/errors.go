package interviews

import "errors"

var (
	ErrNotFound         = errors.New("session not found")
	ErrStaleTurn        = errors.New("stale turn sequence")
	ErrSessionComplete  = errors.New("session already complete")
	ErrCountdownActive  = errors.New("countdown still running")
	ErrReplyInFlight    = errors.New("a reply is already being processed")
	ErrConflict         = errors.New("session modified concurrently")
	ErrJobContextEmpty  = errors.New("job context is required")
	ErrReportNotReady   = errors.New("report not generated yet")
	ErrReportNotStarted = errors.New("report not requested")
)
