package weather

import (
	"errors"
	"fmt"
)

var (
	// Record validation.
	ErrOutOfRange            = errors.New("value out of range")
	ErrInvalidDate           = errors.New("invalid date")
	ErrEmptyDescription      = errors.New("empty description")
	ErrUnsupportedUnit       = errors.New("unsupported unit")
	ErrBuilderReused         = errors.New("builder already built")
	ErrCapabilityUnsupported = errors.New("capability not supported by provider")

	// Provider responses.
	ErrTransport         = errors.New("provider transport error")
	ErrEmptyResponse     = errors.New("empty provider response")
	ErrMalformedResponse = errors.New("malformed provider response")

	// Location handling.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidCityName    = errors.New("invalid city name")
	ErrInvalidLanguage    = errors.New("invalid language code")
	ErrAmbiguousLocation  = errors.New("ambiguous location")
	ErrNoLocationFound    = errors.New("no location found")
	ErrNoLocationData     = errors.New("no location data")
)

// ValidationError reports a rejected builder input.
type ValidationError struct {
	Field string
	Value any
	Err   error // ErrOutOfRange, ErrInvalidDate, ErrEmptyDescription or ErrUnsupportedUnit
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Field, e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransportError is returned when a provider answers with a non-success status
// or cannot be reached at all (StatusCode 0).
type TransportError struct {
	Provider   string
	Resource   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v: %s", e.Provider, e.Resource, ErrTransport, e.Message)
	}
	return fmt.Sprintf("%s %s: %v: status %d: %s", e.Provider, e.Resource, ErrTransport, e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrTransport, e.Cause}
	}
	return []error{ErrTransport}
}

// ResponseError reports a body that could not be turned into records.
type ResponseError struct {
	Provider string
	Resource string
	Path     string
	Err      error // ErrEmptyResponse or ErrMalformedResponse
	Cause    error
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Provider, e.Resource, e.Err)
	if e.Path != "" {
		msg += fmt.Sprintf(" at %q", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ResponseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// LocationError reports a failed city lookup.
type LocationError struct {
	Provider string
	Query    string
	Matches  int
	Err      error
}

func (e *LocationError) Error() string {
	if e.Err == ErrAmbiguousLocation {
		return fmt.Sprintf("%s: %v: %q matched %d locations", e.Provider, e.Err, e.Query, e.Matches)
	}
	return fmt.Sprintf("%s: %v: %q", e.Provider, e.Err, e.Query)
}

func (e *LocationError) Unwrap() error { return e.Err }

// Malformed builds a ResponseError for a missing or mistyped path.
func Malformed(provider, resource, path string, cause error) error {
	return &ResponseError{Provider: provider, Resource: resource, Path: path, Err: ErrMalformedResponse, Cause: cause}
}
