package input

import "fmt"

// MalformedJSONError reports a JSON payload that failed to parse.
type MalformedJSONError struct {
	Source string // flag and path, e.g. "--set-json seo"
	Err    error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON in %s: %v", e.Source, e.Err)
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }

// Code returns the stable error code.
func (e *MalformedJSONError) Code() string { return "MALFORMED_JSON" }

// MissingFileError reports an unreadable @file reference.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// Code returns the stable error code.
func (e *MissingFileError) Code() string { return "MISSING_FILE" }

// ConflictingAssignmentError reports two spellings of the same field that
// were given different values.
type ConflictingAssignmentError struct {
	Path   string // normalised terminal path
	First  string
	Second string
}

func (e *ConflictingAssignmentError) Error() string {
	return fmt.Sprintf("conflicting values for %s: %s and %s", e.Path, e.First, e.Second)
}

// Code returns the stable error code.
func (e *ConflictingAssignmentError) Code() string { return "CONFLICTING_ASSIGNMENT" }

// InvalidAssignmentError reports an assignment that cannot be applied: a
// malformed path=value pair, a bad path, or a path that crosses a value of
// the wrong shape.
type InvalidAssignmentError struct {
	Arg    string
	Reason string
}

func (e *InvalidAssignmentError) Error() string {
	return fmt.Sprintf("invalid assignment %q: %s", e.Arg, e.Reason)
}

// Code returns the stable error code.
func (e *InvalidAssignmentError) Code() string { return "INVALID_ASSIGNMENT" }
