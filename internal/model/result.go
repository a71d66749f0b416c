package model

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
)

// FailureKind classifies why an operation did not succeed.
// Callers branch on Kind rather than on raw HTTP statuses.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureAuth       FailureKind = "auth"       // 401 after the one-shot refresh
	FailureForbidden  FailureKind = "forbidden"  // 403, never retried
	FailureNotFound   FailureKind = "not_found"  // 404
	FailureValidation FailureKind = "validation" // 422 or local input checks
	FailureServer     FailureKind = "server"     // 5xx
	FailureNetwork    FailureKind = "network"    // no response received
	FailureConflict   FailureKind = "conflict"   // cart holds items from another store
	FailureUpstream   FailureKind = "upstream"   // other non-2xx, or success:0 envelope
	FailureInternal   FailureKind = "internal"   // request could not be built
)

// Result is the uniform outcome of every storefront operation.
// Expected failures are values, not errors: the API layer never returns a
// Go error or panics for an HTTP or transport problem.
type Result struct {
	Success   bool                `json:"success"`
	Data      json.RawMessage     `json:"data,omitempty"`
	Message   string              `json:"message,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Cancelled bool                `json:"cancelled,omitempty"`

	Status int         `json:"-"` // HTTP status of the final attempt, 0 if none
	Kind   FailureKind `json:"-"`
	// Bare is set when Data is the whole response body because the reply
	// had no data member.
	Bare bool `json:"-"`
}

// OK returns a successful result carrying data.
func OK(data json.RawMessage) *Result {
	return &Result{Success: true, Data: data}
}

// OKWith marshals v into a successful result.
// A value that cannot be marshaled yields an internal failure.
func OKWith(v interface{}) *Result {
	data, err := json.Marshal(v)
	if err != nil {
		return Fail(FailureInternal, "An unexpected error occurred.")
	}
	return OK(data)
}

// Fail returns a failed result of the given kind.
func Fail(kind FailureKind, message string) *Result {
	return &Result{Kind: kind, Message: message}
}

// Declined returns the neutral "user said no" outcome.
func Declined(message string) *Result {
	return &Result{Cancelled: true, Message: message}
}

// FromError converts a Go error into a failed Result. Anything that is
// not an *Error is internal.
func FromError(err error) *Result {
	var e *Error
	if !errors.As(err, &e) {
		return Fail(FailureInternal, "An unexpected error occurred.")
	}

	res := Fail(e.Kind, e.Message)
	if e.Field != "" {
		res.Errors = map[string][]string{e.Field: {e.Message}}
	}
	return res
}

// Decode unmarshals the result payload into v.
func (r *Result) Decode(v interface{}) error {
	if len(r.Data) == 0 {
		return errors.New("empty result data")
	}
	return json.Unmarshal(r.Data, v)
}

// FieldMessages flattens validation errors in a stable field order.
func (r *Result) FieldMessages() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	fields := make([]string, 0, len(r.Errors))
	for field := range r.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var msgs []string
	for _, field := range fields {
		for _, m := range r.Errors[field] {
			if m != "" {
				msgs = append(msgs, m)
			}
		}
	}
	return msgs
}

// KindForStatus maps an HTTP status to its failure class.
func KindForStatus(status int) FailureKind {
	switch {
	case status >= 200 && status < 300:
		return FailureNone
	case status == http.StatusUnauthorized:
		return FailureAuth
	case status == http.StatusForbidden:
		return FailureForbidden
	case status == http.StatusNotFound:
		return FailureNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return FailureValidation
	case status == http.StatusConflict:
		return FailureConflict
	case status >= 500:
		return FailureServer
	default:
		return FailureUpstream
	}
}

// HTTPStatus maps a result back to the status a gateway should answer with.
func (r *Result) HTTPStatus() int {
	if r.Success || r.Cancelled {
		return http.StatusOK
	}
	switch r.Kind {
	case FailureAuth:
		return http.StatusUnauthorized
	case FailureForbidden:
		return http.StatusForbidden
	case FailureNotFound:
		return http.StatusNotFound
	case FailureValidation:
		return http.StatusUnprocessableEntity
	case FailureConflict:
		return http.StatusConflict
	case FailureNetwork, FailureServer, FailureUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
