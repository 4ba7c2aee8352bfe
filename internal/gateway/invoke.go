package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lores-mesh/site-admin/internal/result"
)

// Invoke calls operation and decodes a successful payload into T.
func Invoke[T any](ctx context.Context, g Gateway, operation, method string, body any) (result.Result[T], error) {
	raw, err := g.Call(ctx, operation, method, body)
	if err != nil {
		return result.Result[T]{}, err
	}
	if !raw.IsOk() {
		return result.Err[T](raw.Error()), nil
	}

	var value T
	if payload := raw.Value(); !isNull(payload) {
		if err := json.Unmarshal(payload, &value); err != nil {
			return result.Result[T]{}, &TransportError{Operation: operation, Err: fmt.Errorf("decode payload: %w", err)}
		}
	}
	return result.Ok(value), nil
}

// Find fetches something that may not exist yet. A null payload or a 404
// is Absent; any other failure is Failed and never Absent.
func Find[T any](ctx context.Context, g Gateway, operation string) result.Lookup[T] {
	raw, err := g.Call(ctx, operation, http.MethodGet, nil)
	if err != nil {
		return result.Failed[T](err)
	}
	if !raw.IsOk() {
		if raw.Error().IsNotFound() {
			return result.Absent[T]()
		}
		return result.Failed[T](raw.Error())
	}

	payload := raw.Value()
	if isNull(payload) {
		return result.Absent[T]()
	}
	var value T
	if err := json.Unmarshal(payload, &value); err != nil {
		return result.Failed[T](&TransportError{Operation: operation, Err: fmt.Errorf("decode payload: %w", err)})
	}
	return result.Present(value)
}

func isNull(payload json.RawMessage) bool {
	payload = bytes.TrimSpace(payload)
	return len(payload) == 0 || bytes.Equal(payload, []byte("null"))
}
