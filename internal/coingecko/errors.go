package coingecko

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when CoinGecko answers 404 for a resource.
type NotFoundError struct {
	// Resource is the coin id or endpoint that was not found.
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// UpstreamError is returned when CoinGecko answers with a non-2xx status
// other than 404, or with a 2xx body that cannot be used.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NetworkError is returned once every attempt failed at the transport level.
type NetworkError struct {
	Attempts int
	Message  string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNotFound reports whether err carries a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
