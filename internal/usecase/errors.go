package usecase

import (
	crerr "github.com/cockroachdb/errors"
)

var (
	// ErrConfiguration is the only failure class that should stop the
	// process. Everything else is logged and survived.
	ErrConfiguration = crerr.New("configuration failure")

	// ErrRefreshFailed marks a full-refresh run that could not complete.
	// The scheduler logs it and waits for the next tick.
	ErrRefreshFailed = crerr.New("refresh run failed")
)

// Fatal reports whether an error should terminate the service.
func Fatal(err error) bool {
	return crerr.Is(err, ErrConfiguration)
}
