package mem

import (
	"errors"
	"fmt"
)

// AccessError represents a memory access the model rejects.
//
// The evaluator maps these onto its undefined-behavior taxonomy; the codes
// here describe what the memory model saw, not how the caller classifies it.
type AccessError struct {
	// Code identifies the access failure category.
	Code AccessErrorCode

	// Pointer renders the offending pointer.
	Pointer string

	// Purpose says what the access was for ("copy source", "pointer
	// arithmetic", ...). Optional.
	Purpose string

	// Message is a human-readable description.
	Message string
}

// AccessErrorCode categorizes memory access failures.
type AccessErrorCode string

const (
	// ErrCodeOutOfBounds indicates a byte range escaping its allocation.
	ErrCodeOutOfBounds AccessErrorCode = "OUT_OF_BOUNDS"

	// ErrCodeMisaligned indicates an address violating a required alignment.
	ErrCodeMisaligned AccessErrorCode = "MISALIGNED"

	// ErrCodeUninitRead indicates a read touching uninitialized bytes.
	ErrCodeUninitRead AccessErrorCode = "UNINITIALIZED_READ"

	// ErrCodeDangling indicates a pointer into a deallocated allocation.
	ErrCodeDangling AccessErrorCode = "DANGLING_POINTER"

	// ErrCodeBareDeref indicates a non-zero-length access through a bare
	// integer or null pointer.
	ErrCodeBareDeref AccessErrorCode = "BARE_POINTER_DEREF"

	// ErrCodeProvenance indicates provenance-bearing bytes where plain
	// data was required.
	ErrCodeProvenance AccessErrorCode = "PROVENANCE_PRESENT"

	// ErrCodeInvalidFree indicates a deallocation of something that is not
	// a live scratch allocation base.
	ErrCodeInvalidFree AccessErrorCode = "INVALID_FREE"
)

// Error implements the error interface.
func (e *AccessError) Error() string {
	if e.Purpose != "" {
		return fmt.Sprintf("%s: %s (pointer=%s, purpose=%s)", e.Code, e.Message, e.Pointer, e.Purpose)
	}
	return fmt.Sprintf("%s: %s (pointer=%s)", e.Code, e.Message, e.Pointer)
}

// AsAccessError unwraps err into an *AccessError if it is one.
func AsAccessError(err error) (*AccessError, bool) {
	var ae *AccessError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func accessErrorf(code AccessErrorCode, ptr Pointer, purpose, format string, args ...any) *AccessError {
	return &AccessError{
		Code:    code,
		Pointer: ptr.String(),
		Purpose: purpose,
		Message: fmt.Sprintf(format, args...),
	}
}
