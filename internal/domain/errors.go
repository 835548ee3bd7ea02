package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the UI can surface.
type ErrorKind string

const (
	ErrorKindPermissionDenied       ErrorKind = "permission_denied"
	ErrorKindDeviceNotFound         ErrorKind = "device_not_found"
	ErrorKindDeviceBusy             ErrorKind = "device_busy"
	ErrorKindUnsupportedEnvironment ErrorKind = "unsupported_environment"
	ErrorKindDeviceFailed           ErrorKind = "device_failed"
	ErrorKindTranscriptionFailed    ErrorKind = "transcription_failed"
	ErrorKindStoreReadFailed        ErrorKind = "store_read_failed"
	ErrorKindStoreWriteFailed       ErrorKind = "store_write_failed"
	ErrorKindStoreDeleteFailed      ErrorKind = "store_delete_failed"
	ErrorKindStartup                ErrorKind = "startup"
)

// ErrEmptyThought is returned when a thought without text reaches a store.
var ErrEmptyThought = errors.New("thought text is empty")

// Error carries a kind alongside the underlying cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a kinded error with a formatted cause.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Err == nil && other.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or fallback.
func KindOf(err error, fallback ErrorKind) ErrorKind {
	var kinded *Error
	if errors.As(err, &kinded) {
		return kinded.Kind
	}
	return fallback
}

// Detail returns the cause text without the kind prefix.
func Detail(err error) string {
	var kinded *Error
	if errors.As(err, &kinded) && kinded.Err != nil {
		return kinded.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsDeviceKind reports whether kind belongs to the capture device taxonomy.
func IsDeviceKind(kind ErrorKind) bool {
	switch kind {
	case ErrorKindPermissionDenied, ErrorKindDeviceNotFound, ErrorKindDeviceBusy,
		ErrorKindUnsupportedEnvironment, ErrorKindDeviceFailed:
		return true
	default:
		return false
	}
}
