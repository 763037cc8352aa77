package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aidanlsb/shopctl/internal/check"
	"github.com/aidanlsb/shopctl/internal/client"
	"github.com/aidanlsb/shopctl/internal/engine"
	"github.com/aidanlsb/shopctl/internal/selection"
	"github.com/aidanlsb/shopctl/internal/ui"
	"github.com/aidanlsb/shopctl/internal/verbs"
)

// Error codes raised by the CLI itself. Engine, input, selection, check and
// client errors carry their own codes.
// These codes are stable and can be relied upon by agents.
const (
	ErrConfigInvalid   = "CONFIG_INVALID"
	ErrSchemaInvalid   = "SCHEMA_INVALID"
	ErrTypeNotFound    = "TYPE_NOT_FOUND"
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"
	ErrNoNextPage      = "NO_NEXT_PAGE"
	ErrFileWriteError  = "FILE_WRITE_ERROR"
	ErrInternal        = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnIgnoredFlag = "IGNORED_FLAG"
	WarnPartialData = "PARTIAL_DATA"
)

// codedError attaches a stable code to an error.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }
func (e *codedError) Code() string  { return e.code }

func newCodedError(code, format string, args ...interface{}) error {
	return &codedError{code: code, err: fmt.Errorf(format, args...)}
}

// errorCode returns the code of the first error in the chain that has one.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}
	return ErrInternal
}

// errorReport is everything shown for a failed command.
type errorReport struct {
	Code       string
	Message    string
	Details    interface{}
	Suggestion string
	Usage      string
}

func describeError(err error) errorReport {
	r := errorReport{Code: errorCode(err), Message: err.Error()}

	var (
		unknownResource *engine.UnknownResourceError
		unresolved      *verbs.UnresolvedVerbError
		unknownView     *selection.UnknownViewError
		validation      check.Errors
		usage           *engine.UsageError
		userErrs        *engine.UserErrorsError
		gqlErrs         *client.GraphQLErrors
		missingToken    *client.MissingTokenError
		typeNotFound    *typeNotFoundError
		docsNotFound    *docsTopicNotFoundError
	)
	switch {
	case errors.As(err, &unknownResource):
		r.Suggestion = didYouMean(unknownResource.Suggestions)
	case errors.As(err, &unresolved):
		r.Suggestion = didYouMean(unresolved.Suggestions)
		if unresolved.Verb == "" {
			r.Suggestion = "Verbs: " + strings.Join(unresolved.Suggestions, ", ")
		}
	case errors.As(err, &unknownView):
		r.Suggestion = didYouMean(unknownView.Suggestions)
	case errors.As(err, &validation):
		details := make([]map[string]interface{}, 0, len(validation))
		for _, ve := range validation {
			details = append(details, map[string]interface{}{
				"code":        ve.Code(),
				"path":        ve.Path,
				"type":        ve.TypeName,
				"key":         ve.Key,
				"suggestions": ve.Suggestions,
			})
		}
		r.Details = details
		if len(validation) > 0 && validation[0].Explore != "" {
			r.Suggestion = "Run '" + validation[0].Explore + "' to list valid fields"
		}
	case errors.As(err, &usage):
		r.Usage = usage.Usage
	case errors.As(err, &userErrs):
		r.Details = userErrs.Errors
	case errors.As(err, &gqlErrs):
		r.Details = gqlErrs.Errors
	case errors.As(err, &typeNotFound):
		r.Suggestion = didYouMean(typeNotFound.Suggestions)
	case errors.As(err, &docsNotFound):
		r.Suggestion = didYouMean(docsNotFound.Suggestions)
	case errors.As(err, &missingToken):
		if missingToken.TokenEnv != "" {
			r.Suggestion = "export " + missingToken.TokenEnv + "=<admin api access token>"
		}
	}
	return r
}

func didYouMean(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}
	return "Did you mean: " + strings.Join(suggestions, ", ") + "?"
}

// reportError prints err once, as a JSON envelope with --json and as
// styled text on stderr otherwise.
func reportError(err error) {
	if err == nil {
		return
	}
	r := describeError(err)
	if jsonOutput {
		outputError(r.Code, r.Message, r.Details, r.Suggestion)
		return
	}

	fmt.Fprintln(stderr, ui.Error(r.Message))
	if r.Suggestion != "" {
		fmt.Fprintln(stderr, ui.Hint(r.Suggestion))
	}
	if r.Usage != "" {
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, r.Usage)
	}
	log.Debug().Str("code", r.Code).Msg("command failed")
}
