package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnreachable marks a call that never produced a backend response:
// refused connections, DNS failures, timeouts. Wrapped into every transport
// failure so callers can route the action through the offline queue.
var ErrUnreachable = errors.New("backend unreachable")

// APIError is a response the backend produced deliberately: the request
// reached the server and was rejected. Transport failures are never
// APIErrors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether the error is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsTransportError reports whether the call never produced a backend
// response. Such failures are retry candidates for the offline queue;
// deliberate rejections are not.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
