package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator collects field errors so a bad config reports all of them at once.
type Validator struct {
	errs []error
}

// Err joins every collected error, or returns nil.
func (v *Validator) Err() error {
	return errors.Join(v.errs...)
}

// Fail records a free-form problem with field.
func (v *Validator) Fail(field, message string) {
	v.errs = append(v.errs, &ValidationError{Field: field, Message: message})
}

// Required rejects an empty value.
func (v *Validator) Required(field, value string) {
	if value == "" {
		v.Fail(field, "is required")
	}
}

// Port rejects ports outside 1-65535.
func (v *Validator) Port(field string, port int) {
	if port < 1 || port > 65535 {
		v.Fail(field, "must be between 1 and 65535")
	}
}

// Positive rejects zero and negative values.
func (v *Validator) Positive(field string, n int64) {
	if n <= 0 {
		v.Fail(field, "must be positive")
	}
}

// OneOf rejects a value that is not in allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) {
	if !slices.Contains(allowed, value) {
		v.Fail(field, "must be one of: "+strings.Join(allowed, ", "))
	}
}

// LogLevel checks a logger level name.
func (v *Validator) LogLevel(field, level string) {
	v.OneOf(field, level, "debug", "info", "warn", "warning", "error", "fatal")
}
