package syncservice

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected marks a send the server refused with a 4xx status. The
	// change-set entries involved are dropped.
	ErrRejected = errors.New("sync rejected")
	// ErrTransient marks any other failed send. The entries stay for the next pass.
	ErrTransient = errors.New("sync failed")
)

type SendError struct {
	URL        string
	Method     string
	StatusCode int
	Err        error
}

func (e *SendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *SendError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

func (e *SendError) Unwrap() []error {
	kind := ErrTransient
	if e.Rejected() {
		kind = ErrRejected
	}
	if e.Err == nil {
		return []error{kind}
	}
	return []error{kind, e.Err}
}
