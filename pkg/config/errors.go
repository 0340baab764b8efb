package config

import "fmt"

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError creates a configuration error for one field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for %s: %s", e.Field, e.Message)
}
