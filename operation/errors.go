package operation

import "fmt"

// ValidationError is a missing or malformed inbound field. It never reaches
// the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid returns a ValidationError with message.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}

// ConfigurationError is a process-held credential or setting that is absent.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// Misconfigured returns a ConfigurationError with message.
func Misconfigured(message string) error {
	return &ConfigurationError{Message: message}
}

// UnauthorizedError is a caller the identity service rejected.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string { return "unauthorized: " + e.Reason }

// DownstreamError is a non-2xx response from a downstream platform reported
// by an Action.
type DownstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("downstream returned %d", e.StatusCode)
}
