// internal/service/errors.go
package service

import "fmt"

// ValidationError reports a request the bridge refuses before touching
// the dispatcher: missing printer name, missing payload, bad base64.
// Handlers map it to HTTP 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}
