package client

import (
	"errors"
	"fmt"
)

// ErrSignedOut reports that the client holds no usable session: either no
// tokens were ever stored or a refresh attempt was rejected and the stored
// session was discarded.
var ErrSignedOut = errors.New("client: signed out")

// APIError is a structured rejection from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// SchemaError reports a response body that did not decode into the expected
// record shape. It is distinct from an APIError: the request may well have
// succeeded, but the payload cannot be trusted.
type SchemaError struct {
	Type string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch decoding %s: %v", e.Type, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}

// IsConflict reports whether err is a backend 409.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 409
}
