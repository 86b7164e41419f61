package credits

import "errors"

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrUnknownCategory     = errors.New("unknown credit category")
)
