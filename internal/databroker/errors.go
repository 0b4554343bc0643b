package databroker

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork marks a fetch that did not produce a usable response.
	ErrNetwork = errors.New("network failure")
	// ErrResourceExists is returned when creating a resource that already has data.
	ErrResourceExists = errors.New("resource already exists")
	// ErrUnresolved is the failure of a deferred resolution whose describers all failed.
	ErrUnresolved = errors.New("resource could not be resolved")
)

type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}
