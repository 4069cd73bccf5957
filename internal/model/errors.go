package model

import (
	"errors"
	"fmt"
)

// ValidationKind names the invariant a ValidationError reports.
type ValidationKind string

const (
	KindConflictingTime     ValidationKind = "conflicting_time"
	KindMissingTime         ValidationKind = "missing_time"
	KindMissingTimezone     ValidationKind = "missing_timezone"
	KindInvalidTimezone     ValidationKind = "invalid_timezone"
	KindMixedKinds          ValidationKind = "mixed_kinds"
	KindNonIncreasingRange  ValidationKind = "non_increasing_range"
	KindInvalidTransparency ValidationKind = "invalid_transparency"
	KindInvalidDate         ValidationKind = "invalid_date"
)

// ValidationError is returned by every constructor in this package when an
// invariant does not hold. Match on the kind with errors.Is against the
// Err* sentinels below.
type ValidationError struct {
	Kind    ValidationKind
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return "validation: " + string(e.Kind)
	}
	return fmt.Sprintf("validation: %s: %s", e.Kind, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

var (
	ErrConflictingTime     = &ValidationError{Kind: KindConflictingTime}
	ErrMissingTime         = &ValidationError{Kind: KindMissingTime}
	ErrMissingTimezone     = &ValidationError{Kind: KindMissingTimezone}
	ErrInvalidTimezone     = &ValidationError{Kind: KindInvalidTimezone}
	ErrMixedKinds          = &ValidationError{Kind: KindMixedKinds}
	ErrNonIncreasingRange  = &ValidationError{Kind: KindNonIncreasingRange}
	ErrInvalidTransparency = &ValidationError{Kind: KindInvalidTransparency}
	ErrInvalidDate         = &ValidationError{Kind: KindInvalidDate}
)

// ErrUnsupportedEventType is returned by FromCelestial for an event value it
// has no mapping for.
var ErrUnsupportedEventType = errors.New("unsupported event type")

func invalid(kind ValidationKind, format string, args ...any) error {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalidWrap(kind ValidationKind, err error, format string, args ...any) error {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
