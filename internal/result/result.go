// Package result holds the outcome types shared by every remote call: the
// Result envelope (success xor domain error) and the three-way Lookup used
// when a resource may legitimately be absent.
package result

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrMalformedEnvelope = errors.New("malformed result envelope")

// DomainError is a well-formed failure reported by the node API, e.g. a
// validation failure or a duplicate name.
type DomainError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) IsNotFound() bool {
	return e.Status == http.StatusNotFound || e.Code == CodeNotFound
}

const (
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeUnprocessable = "unprocessable"
	CodeValidation    = "validation"
	CodeServerError   = "server_error"
)

// CodeForStatus derives an error code from an HTTP status.
func CodeForStatus(status int) string {
	switch {
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusUnprocessableEntity:
		return CodeUnprocessable
	case status >= 500:
		return CodeServerError
	default:
		return CodeBadRequest
	}
}

// Result carries exactly one of a success value or a domain error.
// The zero value carries neither and is reported invalid.
type Result[T any] struct {
	value T
	err   *DomainError
	ok    bool
}

func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

func Err[T any](err *DomainError) Result[T] {
	if err == nil {
		err = &DomainError{Code: CodeServerError, Message: "unspecified error"}
	}
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool { return r.ok }

func (r Result[T]) IsValid() bool { return r.ok || r.err != nil }

// Value returns the success value; the zero T on an error result.
func (r Result[T]) Value() T { return r.value }

// Error returns the domain error, or nil on success.
func (r Result[T]) Error() *DomainError { return r.err }

// Unwrap returns the value and the domain error as a Go pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.ok {
		return r.value, nil
	}
	return r.value, r.err
}

type envelope struct {
	Ok  json.RawMessage `json:"Ok,omitempty"`
	Err *DomainError    `json:"Err,omitempty"`
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.ok {
		value, err := json.Marshal(r.value)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Ok json.RawMessage `json:"Ok"`
		}{value})
	}
	if r.err == nil {
		return nil, ErrMalformedEnvelope
	}
	return json.Marshal(envelope{Err: r.err})
}

func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	okRaw, hasOk := keys["Ok"]
	errRaw, hasErr := keys["Err"]
	if hasOk == hasErr {
		return fmt.Errorf("%w: want exactly one of Ok or Err", ErrMalformedEnvelope)
	}

	if hasOk {
		var value T
		if err := json.Unmarshal(okRaw, &value); err != nil {
			return fmt.Errorf("decode Ok payload: %w", err)
		}
		*r = Ok(value)
		return nil
	}

	domainErr, err := decodeError(errRaw)
	if err != nil {
		return err
	}
	*r = Err[T](domainErr)
	return nil
}

// decodeError accepts either a structured error object or a bare string,
// which is what the node's responders emit.
func decodeError(raw json.RawMessage) (*DomainError, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode Err payload: %w", err)
		}
		return &DomainError{Code: CodeServerError, Message: msg}, nil
	}
	var domainErr DomainError
	if err := json.Unmarshal(raw, &domainErr); err != nil {
		return nil, fmt.Errorf("decode Err payload: %w", err)
	}
	return &domainErr, nil
}
