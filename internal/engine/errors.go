package engine

import (
	"fmt"
	"strings"
)

// Error codes raised by the engine itself. The engine's collaborators
// define their own (UNRESOLVED_VERB, MALFORMED_JSON, ...).
const (
	CodeUnknownResource = "UNKNOWN_RESOURCE"
	CodeMissingArgument = "MISSING_ARGUMENT"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUserErrors      = "USER_ERRORS"
)

// UnknownResourceError reports a resource name missing from the catalog.
type UnknownResourceError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource %q", e.Name)
}

// Code returns the stable error code.
func (e *UnknownResourceError) Code() string { return CodeUnknownResource }

// UsageError reports flags that do not fit the verb.
type UsageError struct {
	code    string
	Message string
	Usage   string
}

func (e *UsageError) Error() string { return e.Message }

// Code returns the stable error code.
func (e *UsageError) Code() string { return e.code }

func usageErrorf(code, usage, format string, args ...any) *UsageError {
	return &UsageError{code: code, Message: fmt.Sprintf(format, args...), Usage: usage}
}

// UserError is one entry of a mutation's userErrors list.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

// UserErrorsError reports a mutation the server rejected.
type UserErrorsError struct {
	Operation string
	Errors    []UserError
}

func (e *UserErrorsError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ue := range e.Errors {
		if len(ue.Field) > 0 {
			parts[i] = strings.Join(ue.Field, ".") + ": " + ue.Message
		} else {
			parts[i] = ue.Message
		}
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, strings.Join(parts, "; "))
}

// Code returns the stable error code.
func (e *UserErrorsError) Code() string { return CodeUserErrors }
