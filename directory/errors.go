package directory

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is wrapped by ConfigurationError.
var ErrNotConfigured = errors.New("directory: base url not configured")

// ConfigurationError reports a client that cannot build requests.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("directory: misconfigured: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrNotConfigured }

// FetchError reports a response whose status text was not "OK".
type FetchError struct {
	StatusCode int
	StatusText string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("directory: fetch failed: %s", e.StatusText)
}

// ParseError reports a response body that is not a JSON array of users.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("directory: decode users: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsFetchError reports whether err carries a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
