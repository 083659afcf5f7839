package conflict

import "errors"

var (
	ErrInvalidInterval = errors.New("pickup must be before return")

	ErrInvalidWindow = errors.New("window start must not be after its end")

	ErrInvalidClock = errors.New("clock time must be HH:MM between 00:00 and 23:59")
)
