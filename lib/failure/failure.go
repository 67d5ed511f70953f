// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package failure

import (
	"errors"
	"fmt"
)

// Kind classifies an error for programmatic handling.
type Kind string

const (
	// KindAuth means the interactive login was cancelled or failed.
	KindAuth Kind = "auth"

	// KindTokenExpired means a cached credential could not be
	// refreshed. The session is gone and the user must sign in again.
	KindTokenExpired Kind = "token_expired"

	// KindIdentityLookup means the provider could not tell us who the
	// signed-in account is.
	KindIdentityLookup Kind = "identity_lookup"

	// KindProfileLookup means the remote store could not be read while
	// resolving the user's role and status.
	KindProfileLookup Kind = "profile_lookup"

	// KindValidation means form rules were violated. Raised before any
	// I/O happens.
	KindValidation Kind = "validation"

	// KindRemoteStructure means a table or other structural object the
	// store is expected to have is missing: a configuration defect.
	KindRemoteStructure Kind = "remote_structure"

	// KindRemoteTransient means the store was unreachable or failed in
	// a way that may succeed on retry.
	KindRemoteTransient Kind = "remote_transient"

	// KindPartialWrite means the occurrence header was written but its
	// test rows were not. The data is inconsistent and is not repaired
	// automatically.
	KindPartialWrite Kind = "partial_write"
)

// Error is a classified error. Use the constructors rather than
// building one directly.
type Error struct {
	Kind Kind

	// Err is the underlying cause with the human-readable message.
	Err error

	// OccurrenceID is set on partial writes so the orphaned header can
	// be located.
	OccurrenceID string
}

func (e *Error) Error() string { return e.Err.Error() }

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Auth creates an authentication failure.
func Auth(format string, args ...any) *Error { return newf(KindAuth, format, args...) }

// TokenExpired creates a refresh failure.
func TokenExpired(format string, args ...any) *Error {
	return newf(KindTokenExpired, format, args...)
}

// IdentityLookup creates an identity lookup failure.
func IdentityLookup(format string, args ...any) *Error {
	return newf(KindIdentityLookup, format, args...)
}

// ProfileLookup creates a profile lookup failure.
func ProfileLookup(format string, args ...any) *Error {
	return newf(KindProfileLookup, format, args...)
}

// Validation creates a validation failure.
func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// RemoteStructure creates a missing-structure failure.
func RemoteStructure(format string, args ...any) *Error {
	return newf(KindRemoteStructure, format, args...)
}

// RemoteTransient creates a retryable store failure.
func RemoteTransient(format string, args ...any) *Error {
	return newf(KindRemoteTransient, format, args...)
}

// PartialWrite creates a partial write failure for the given
// occurrence.
func PartialWrite(occurrenceID string, format string, args ...any) *Error {
	failure := newf(KindPartialWrite, format, args...)
	failure.OccurrenceID = occurrenceID
	return failure
}

// KindOf returns the kind of the first *Error in err's chain, or ""
// when err carries no classification.
func KindOf(err error) Kind {
	var failure *Error
	if errors.As(err, &failure) {
		return failure.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return Is(err, KindValidation) }

// IsAuth reports whether err should send the user back to sign in:
// a failed login or an unrefreshable credential.
func IsAuth(err error) bool { return Is(err, KindAuth) || Is(err, KindTokenExpired) }

// UserMessage renders err for display. The text tells the user what
// to do next; the underlying message is appended for diagnostics.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindValidation:
		return err.Error()
	case KindAuth:
		return "Sign-in failed: " + err.Error()
	case KindTokenExpired:
		return "Your session expired. Please sign in again."
	case KindIdentityLookup:
		return "Could not identify your account. Try again: " + err.Error()
	case KindProfileLookup:
		return "Could not load your access profile. Try again: " + err.Error()
	case KindRemoteStructure:
		return "The report store is misconfigured. Ask your administrator to fix the configuration (" + err.Error() + ")"
	case KindRemoteTransient:
		return "The report store is unavailable. Try again (" + err.Error() + ")"
	case KindPartialWrite:
		var failure *Error
		errors.As(err, &failure)
		return fmt.Sprintf("Occurrence %s was saved without all of its tests. Tell your administrator (%s)",
			failure.OccurrenceID, err.Error())
	default:
		return "Unexpected error: " + err.Error()
	}
}
