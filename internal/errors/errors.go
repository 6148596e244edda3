package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// UsageError is returned when the command line cannot be accepted or help
// was requested. The process prints the usage text and exits with status 1.
type UsageError struct {
	Message string
}

func (e UsageError) Error() string {
	if e.Message == "" {
		return "invalid usage"
	}
	return e.Message
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// OperationError wraps a failure talking to a live database
type OperationError struct {
	Vendor     string
	Operation  string
	Suggestion string
	Err        error
}

func (e OperationError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Vendor, e.Operation)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}
	return msg
}

func (e OperationError) Unwrap() error {
	return e.Err
}

// DatabaseError enhances driver errors with context
func DatabaseError(vendor string, operation string, err error) error {
	return OperationError{
		Vendor:     vendor,
		Operation:  operation,
		Suggestion: getDatabaseSuggestion(vendor, err),
		Err:        err,
	}
}

// getDatabaseSuggestion returns helpful suggestions based on vendor and error
func getDatabaseSuggestion(vendor string, err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())

	switch vendor {
	case "postgresql":
		if strings.Contains(errStr, "password authentication failed") {
			return "The current password was rejected; the password may already have been changed"
		}
		if strings.Contains(errStr, "ssl is not enabled") {
			return "Add ssl=false (or sslmode=disable) to the connection url"
		}
	case "mysql":
		if strings.Contains(errStr, "access denied") {
			return "The current password was rejected; the password may already have been changed"
		}
		if strings.Contains(errStr, "operation alter user failed") {
			return "The user may need the CREATE USER privilege or a host qualifier"
		}
	case "sqlserver":
		if strings.Contains(errStr, "login failed") {
			return "The current password was rejected; the password may already have been changed"
		}
	case "oracle":
		if strings.Contains(errStr, "ora-01017") {
			return "The current password was rejected; the password may already have been changed"
		}
		if strings.Contains(errStr, "ora-28007") {
			return "The password cannot be reused; pick a password that is not in the history"
		}
		if strings.Contains(errStr, "dpi-1047") {
			return "Install Oracle Instant Client and make it visible to the dynamic linker"
		}
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") || isTimeout(err) {
		return "The operation timed out. Check connectivity or raise connect_timeout"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check the host and port in the connection url"
	}

	return ""
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(UsageError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}
	if _, ok := err.(OperationError); ok {
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
