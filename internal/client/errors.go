package client

import (
	"fmt"
	"net/http"
	"strings"
)

// Error codes of transport failures.
const (
	CodeRequestFailed = "REQUEST_FAILED"
	CodeGraphQLErrors = "GRAPHQL_ERRORS"
	CodeMissingToken  = "MISSING_TOKEN"
)

// RequestError reports a failed HTTP exchange.
type RequestError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

// throttledHint is appended to the message of throttled requests.
const throttledHint = " (throttled by the Admin API; wait and run the command again)"

func (e *RequestError) Error() string {
	if e.Throttled() && e.Err == nil {
		return fmt.Sprintf("request to %s failed: status %d%s", e.Endpoint, e.Status, throttledHint)
	}
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("request to %s failed (status %d): %v", e.Endpoint, e.Status, e.Err)
	case e.Body != "":
		return fmt.Sprintf("request to %s failed: status %d: %s", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("request to %s failed: status %d", e.Endpoint, e.Status)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Throttled reports an HTTP 429 answer.
func (e *RequestError) Throttled() bool { return e.Status == http.StatusTooManyRequests }

// Code returns the stable error code.
func (e *RequestError) Code() string { return CodeRequestFailed }

// GraphQLErrors reports the top-level errors of a response.
type GraphQLErrors struct {
	Errors []GraphQLError
}

func (e *GraphQLErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	msg := "graphql: " + strings.Join(msgs, "; ")
	if e.Throttled() {
		msg += throttledHint
	}
	return msg
}

// Code returns the stable error code.
func (e *GraphQLErrors) Code() string { return CodeGraphQLErrors }

// Throttled reports whether the server rejected the request for cost.
func (e *GraphQLErrors) Throttled() bool {
	for _, ge := range e.Errors {
		if ge.ErrorCode() == "THROTTLED" {
			return true
		}
	}
	return false
}

// MissingTokenError reports that no access token was found.
type MissingTokenError struct {
	Endpoint string
	TokenEnv string
}

func (e *MissingTokenError) Error() string {
	if e.TokenEnv != "" {
		return fmt.Sprintf("no access token for %s: set %s", e.Endpoint, e.TokenEnv)
	}
	return fmt.Sprintf("no access token for %s", e.Endpoint)
}

// Code returns the stable error code.
func (e *MissingTokenError) Code() string { return CodeMissingToken }
