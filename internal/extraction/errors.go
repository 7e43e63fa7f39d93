package extraction

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrBusy is returned while another structural operation is in flight.
	ErrBusy = errors.New("another operation is in progress")
	// ErrStale marks a response that arrived after the session moved on.
	ErrStale = errors.New("session changed while the request was in flight")
	// ErrNothingSelected rejects a commit with an empty selection.
	ErrNothingSelected = errors.New("select at least one item to save")
	// ErrNoEditInProgress is returned when saving an index that is not being edited.
	ErrNoEditInProgress = errors.New("item is not being edited")
)

// ValidationError is an input problem caught before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors collects per-field problems found while saving an edit.
type FieldErrors []ValidationError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}

// StageError is returned when an operation is not valid in the current stage.
type StageError struct {
	Op    string
	Stage Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("cannot %s while in %s stage", e.Op, e.Stage)
}

// NoResultsCause distinguishes why an extraction yielded nothing.
type NoResultsCause string

const (
	CauseUnreadable      NoResultsCause = "unreadable"
	CauseLowConfidence   NoResultsCause = "low_confidence"
	CauseNoMenuStructure NoResultsCause = "no_menu_structure"
)

var noResultsHints = map[NoResultsCause]string{
	CauseUnreadable:      "No text could be read. Retake the photo in good light, flat and in focus, or try a higher resolution image.",
	CauseLowConfidence:   "Text was found but could not be read reliably. Crop the photo to the menu section and avoid glare or handwriting.",
	CauseNoMenuStructure: "Text was read but no dishes with prices were found. Make sure the image or page shows menu items, not a cover or a contact page.",
}

// NoResultsError is returned when the service answered without any items.
type NoResultsError struct {
	Cause NoResultsCause
}

func (e *NoResultsError) Error() string {
	return fmt.Sprintf("no menu items found (%s)", e.Cause)
}

// Hint is the remediation text for the cause.
func (e *NoResultsError) Hint() string {
	return noResultsHints[e.Cause]
}

// ServiceCategory is a human-readable class of transport or server failure.
type ServiceCategory string

const (
	ServiceBadFormat   ServiceCategory = "bad_format"
	ServiceTooLarge    ServiceCategory = "too_large"
	ServiceServerError ServiceCategory = "server_error"
	ServiceTimeout     ServiceCategory = "timeout"
	ServiceUnknown     ServiceCategory = "unknown"
)

var serviceMessages = map[ServiceCategory]string{
	ServiceBadFormat:   "The extraction service could not process this file format.",
	ServiceTooLarge:    "The file is too large for the extraction service.",
	ServiceServerError: "The extraction service failed. Please try again shortly.",
	ServiceTimeout:     "The extraction service took too long to respond.",
	ServiceUnknown:     "Extraction failed for an unknown reason.",
}

// ServiceError wraps a failed extraction call.
type ServiceError struct {
	Category   ServiceCategory
	StatusCode int
	Detail     string
	Err        error
}

func (e *ServiceError) Error() string {
	msg := serviceMessages[e.Category]
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// CategorizeStatus maps an HTTP status from the extraction service.
func CategorizeStatus(status int) ServiceCategory {
	switch {
	case status == 400 || status == 415 || status == 422:
		return ServiceBadFormat
	case status == 413:
		return ServiceTooLarge
	case status == 408 || status == 504:
		return ServiceTimeout
	case status >= 500:
		return ServiceServerError
	default:
		return ServiceUnknown
	}
}

// AsServiceError converts any extractor failure into a ServiceError.
func AsServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	category := ServiceUnknown
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		category = ServiceTimeout
	}
	return &ServiceError{Category: category, Err: err}
}
