package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when the trigger configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrAlreadyRunning is returned when Start is called on a running trigger
	ErrAlreadyRunning = errors.New("scheduler is already running")
)
