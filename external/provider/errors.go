package provider

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var (
	// ErrRateLimited marks a 429 reply. Retried after the server-advised
	// delay.
	ErrRateLimited = crerr.New("provider rate limited")
	// ErrTransient marks 5xx replies and network failures. Retried with
	// linear-multiplier backoff.
	ErrTransient = crerr.New("provider transient failure")
	// ErrRejected marks non-429 4xx replies. Never retried.
	ErrRejected = crerr.New("provider rejected request")
	// ErrMalformedPayload marks a 200 reply whose body lacks the
	// response envelope. Never retried.
	ErrMalformedPayload = crerr.New("provider payload malformed")
	// ErrExhausted wraps the last failure once the retry budget is
	// spent.
	ErrExhausted = crerr.New("provider retries exhausted")
)

// FetchError carries the request coordinates of a failed provider call.
type FetchError struct {
	Sport    string
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch %s %s: status %d: %v", e.Sport, e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s %s: %v", e.Sport, e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(sport, endpoint string, status int, err error) *FetchError {
	return &FetchError{
		Sport:    sport,
		Endpoint: endpoint,
		Status:   status,
		Err:      err,
	}
}

// Retryable reports whether another attempt could change the outcome.
func Retryable(err error) bool {
	return crerr.Is(err, ErrRateLimited) || crerr.Is(err, ErrTransient)
}
