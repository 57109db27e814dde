package intakesvc

import (
	"errors"
	"strings"
)

// Kind classifies a failed submission.
type Kind string

const (
	// KindTimeout: the bounded wait expired and the request was aborted.
	KindTimeout Kind = "TIMEOUT"
	// KindUnreachable: the request never reached or returned from the
	// server (DNS, connection refused, reset).
	KindUnreachable Kind = "UNREACHABLE"
	// KindServerRejected: the server answered with a non-success status.
	// Explicitly not a service-down condition.
	KindServerRejected Kind = "SERVER_REJECTED"
)

// Error is a classified submission failure.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status for KindServerRejected, 0 otherwise
	Code    string // machine code from the error body, when present
	Message string // human message safe to show inline
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// serviceDownIndicators are matched case-insensitively against untyped
// failure text. Fragile by nature; typed kinds are checked first and these
// only catch foreign errors that reach the classifier unwrapped.
var serviceDownIndicators = []string{
	"failed to fetch",
	"networkerror",
	"load failed",
	"dns",
	"timeout",
	"timed out",
}

// ServiceDown reports whether a submission failure means the intake service
// could not be reached, as opposed to having rejected the request.
func ServiceDown(err error) bool {
	if err == nil {
		return false
	}

	var classified *Error
	if errors.As(err, &classified) {
		switch classified.Kind {
		case KindTimeout, KindUnreachable:
			return true
		case KindServerRejected:
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range serviceDownIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
