package scheduler

import "errors"

var (
	// ErrSchedulerAlreadyRunning is returned when Start is called twice
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
