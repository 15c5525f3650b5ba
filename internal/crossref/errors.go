package crossref

import (
	"errors"
	"fmt"
)

// Distinguished remote conditions. Probes report these as Probe outcomes;
// mutating calls wrap them in *HTTPError so errors.Is still matches.
var (
	ErrGone      = errors.New("crossref: resource gone")
	ErrNoContent = errors.New("crossref: no content")
	ErrNotFound  = errors.New("crossref: not found")
)

// ErrCircuitOpen is wrapped by HTTPError when calls are suspended after
// repeated transport or server failures.
var ErrCircuitOpen = errors.New("crossref: circuit open")

// ErrPrefixNotAllowed is wrapped by ClientError when a DOI falls outside the
// configured prefixes.
var ErrPrefixNotAllowed = errors.New("doi prefix not allowed")

// ErrorCategory classifies a ClientError.
type ErrorCategory string

const (
	// CategoryBadData: the service rejected the payload or identifier.
	CategoryBadData ErrorCategory = "bad_data"

	// CategoryAuthentication: credentials rejected or account not allowed.
	CategoryAuthentication ErrorCategory = "authentication"

	// CategoryPrecondition: the service refused the state change, e.g.
	// minting a DOI whose metadata has not been deposited.
	CategoryPrecondition ErrorCategory = "precondition"

	// CategoryValidation: the request was rejected before it was sent.
	CategoryValidation ErrorCategory = "validation"
)

// ClientError is the generic remote-service error: the service (or the
// client on its behalf) refused the request.
type ClientError struct {
	Category   ErrorCategory
	Operation  string
	StatusCode int
	Message    string
	Underlying error
}

func (e *ClientError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("crossref %s [%s]: %s: %v", e.Operation, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("crossref %s [%s]: %s", e.Operation, e.Category, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Underlying
}

// HTTPError is a transport or unexpected HTTP-layer failure. StatusCode is 0
// when no response was received.
type HTTPError struct {
	Operation  string
	Method     string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("crossref %s: %s %s: %v", e.Operation, e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("crossref %s: HTTP %d for %s %s: %s", e.Operation, e.StatusCode, e.Method, e.URL, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err is a generic remote-service error.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsHTTPError reports whether err is a transport or HTTP-layer error.
func IsHTTPError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}

// IsRemote reports whether err originated from the registration client.
func IsRemote(err error) bool {
	return IsClientError(err) || IsHTTPError(err)
}
