package model

import "fmt"

// ConfigurationError is a malformed pipeline definition or configuration,
// detected before any stage executes.
type ConfigurationError struct {
	// Field is the offending config key or stage id.
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CollaboratorError is a failure of the external call behind a stage. Err is the
// collaborator's raw error and is not interpreted.
type CollaboratorError struct {
	StageID string
	Err     error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.StageID, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
