package authority

import "fmt"

// HTTPError represents a non-200 HTTP response from the authority.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("authority: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsServerError returns true for 5xx responses.
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500
}

// UnhealthyError is returned when /health answers but does not report "ok".
type UnhealthyError struct {
	Status string
}

func (e *UnhealthyError) Error() string {
	if e.Status == "" {
		return "authority: health response has no status"
	}
	return fmt.Sprintf("authority: health status %q", e.Status)
}
