package strava

import (
	"errors"
	"fmt"
)

// ErrAuthentication is returned when a 401 could not be resolved by refreshing the token.
var ErrAuthentication = errors.New("strava authentication failed")

// HTTPError carries a non-2xx response that the client did not recover from
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsStatus reports whether err wraps an HTTPError with the given status code.
func IsStatus(err error, statusCode int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == statusCode
}
