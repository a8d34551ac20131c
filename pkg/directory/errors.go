package directory

import "errors"

// StoreError represents a domain error from directory operations.
//
// These are business logic errors (directory not found, capability denied,
// quota reached) as opposed to infrastructure errors. Presentation layers
// translate the Code to their own error surface (HTTP status codes, CLI
// exit codes).
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path optionally names the entity related to the error (a directory
	// name, role, or id) to help with debugging and error reporting
	Path string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode represents the category of a domain error.
type ErrorCode int

const (
	// ErrNotFound indicates the requested directory or permission set
	// doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrInvalidName indicates an empty directory name was supplied
	ErrInvalidName

	// ErrInvalidArgument indicates invalid parameters were provided
	// (empty query term, empty role, duplicate role)
	ErrInvalidArgument

	// ErrUnknownGroup indicates the group resolver knows no roles for the
	// group, i.e. the group does not exist
	ErrUnknownGroup

	// ErrQuotaExceeded indicates the per-group directory cap was reached
	ErrQuotaExceeded

	// ErrReadDenied indicates the actor's role lacks the read capability
	ErrReadDenied

	// ErrWriteDenied indicates the actor's role lacks the write capability
	ErrWriteDenied

	// ErrDeleteDenied indicates the actor's role lacks the delete
	// capability
	ErrDeleteDenied

	// ErrNotAdmin indicates the operation requires the administrative
	// role, which the actor does not hold
	ErrNotAdmin

	// ErrNotEmpty indicates a delete was attempted on a directory that
	// still has files or subdirectories
	ErrNotEmpty

	// ErrAlreadyExists indicates a uniqueness constraint was violated,
	// such as a second root for the same group
	ErrAlreadyExists

	// ErrStorage indicates an infrastructure failure in the backing
	// store (I/O error, transaction conflict that exhausted retries)
	ErrStorage
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not found"
	case ErrInvalidName:
		return "invalid name"
	case ErrInvalidArgument:
		return "invalid argument"
	case ErrUnknownGroup:
		return "unknown group"
	case ErrQuotaExceeded:
		return "quota exceeded"
	case ErrReadDenied:
		return "read denied"
	case ErrWriteDenied:
		return "write denied"
	case ErrDeleteDenied:
		return "delete denied"
	case ErrNotAdmin:
		return "not admin"
	case ErrNotEmpty:
		return "not empty"
	case ErrAlreadyExists:
		return "already exists"
	case ErrStorage:
		return "storage failure"
	default:
		return "unknown"
	}
}

// CodeOf extracts the ErrorCode from err. Errors that are not StoreErrors
// are reported as ErrStorage, matching the propagation policy: anything
// the domain did not classify is an infrastructure failure.
func CodeOf(err error) ErrorCode {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return ErrStorage
}

// IsCode reports whether err is a StoreError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Code == code
}
