package physics

import (
	"errors"
	"fmt"
)

// ConfigError reports a structurally invalid design point or model
// selection. It is the only error class the evaluator returns; every
// numeric pathology degrades to NaN outputs instead.
type ConfigError struct {
	Message string
	Op      string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// WithOperation annotates the error with the operation that raised it.
func (e *ConfigError) WithOperation(op string) *ConfigError {
	e.Op = op
	return e
}

// NewConfigError creates a ConfigError with the given message.
func NewConfigError(message string) *ConfigError {
	return &ConfigError{Message: message}
}

// NewConfigErrorf creates a ConfigError with a formatted message.
func NewConfigErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
