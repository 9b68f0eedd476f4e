package common

import (
	"errors"
	"fmt"
)

// Kind classifies a failure without any transport or UI formatting attached.
type Kind string

const (
	KindUnauthenticated        Kind = "UNAUTHENTICATED"
	KindQuotaExceeded          Kind = "QUOTA_EXCEEDED"
	KindInvalidInput           Kind = "INVALID_INPUT"
	KindExtractionFailure      Kind = "EXTRACTION_FAILURE"
	KindGenerationFailure      Kind = "GENERATION_FAILURE"
	KindGenerationParseFailure Kind = "GENERATION_PARSE_FAILURE"
	KindStoreFailure           Kind = "STORE_FAILURE"
	KindNetworkUnavailable     Kind = "NETWORK_UNAVAILABLE"
	KindNotFound               Kind = "NOT_FOUND"
	KindInternal               Kind = "INTERNAL"
)

// AppError represents application-specific errors
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(kind Kind, message string, cause error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// KindOf extracts the Kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Retryable reports whether the caller may meaningfully retry after this kind
// of failure. Quota specifically means "retry later", not "retry now".
func Retryable(kind Kind) bool {
	switch kind {
	case KindNetworkUnavailable, KindStoreFailure, KindGenerationFailure, KindQuotaExceeded:
		return true
	}
	return false
}

// Description is the presentation-layer mapping for a Kind. Kept out of the
// core services so handlers and clients can render failures without the
// services knowing about UI copy.
type Description struct {
	Title      string
	Message    string
	Suggestion string
	Retryable  bool
}

var descriptions = map[Kind]Description{
	KindUnauthenticated: {
		Title:      "Sign-in required",
		Message:    "Your session is missing or has expired.",
		Suggestion: "Sign in again and retry.",
	},
	KindQuotaExceeded: {
		Title:      "Monthly limit reached",
		Message:    "You have used all receipt scans included in the free plan this month.",
		Suggestion: "Upgrade to premium or try again next month.",
	},
	KindInvalidInput: {
		Title:   "Nothing to process",
		Message: "The scanned text was empty or unusable.",
	},
	KindExtractionFailure: {
		Title:      "Could not read receipt",
		Message:    "No usable text was found in the photo.",
		Suggestion: "Retake the photo with better lighting.",
	},
	KindGenerationFailure: {
		Title:      "Service unavailable",
		Message:    "The receipt could not be processed right now.",
		Suggestion: "Wait a moment and try again.",
	},
	KindGenerationParseFailure: {
		Title:   "Could not understand receipt",
		Message: "The receipt text did not produce a valid transaction.",
	},
	KindStoreFailure: {
		Title:      "Save failed",
		Message:    "The receipt could not be saved.",
		Suggestion: "Check your connection and try again.",
	},
	KindNetworkUnavailable: {
		Title:      "No connection",
		Message:    "You appear to be offline.",
		Suggestion: "Reconnect and try again.",
	},
	KindNotFound: {
		Title:   "Not found",
		Message: "The requested record does not exist.",
	},
	KindInternal: {
		Title:   "Something went wrong",
		Message: "An unexpected error occurred.",
	},
}

// Describe returns the user-facing description for a kind.
func Describe(kind Kind) Description {
	d, ok := descriptions[kind]
	if !ok {
		d = descriptions[KindInternal]
	}
	d.Retryable = Retryable(kind)
	return d
}
