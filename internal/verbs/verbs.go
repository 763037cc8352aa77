// Package verbs maps the tokens after a resource name onto a catalog verb.
package verbs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aidanlsb/shopctl/internal/commands"
	"github.com/aidanlsb/shopctl/internal/suggest"
)

// Resolution is the outcome of matching leading tokens against a resource's
// verbs.
type Resolution struct {
	// Verb is the matched verb name, or the joined leading non-flag tokens
	// when nothing matched.
	Verb string

	// Rest holds the tokens after the verb.
	Rest []string

	// Matched is nil when the verb is unresolved and the resource is not
	// free-form.
	Matched *commands.Verb
}

// Resolved reports whether a catalog verb matched.
func (r Resolution) Resolved() bool {
	return r.Matched != nil
}

// IsFlag reports whether a token is flag-shaped.
func IsFlag(tok string) bool {
	return strings.HasPrefix(tok, "-")
}

// Resolve returns the longest run of leading tokens that names a verb of the
// resource. Free-form resources take every leading non-flag token as the
// verb string.
func Resolve(r *commands.Resource, tokens []string) Resolution {
	lead := 0
	for lead < len(tokens) && !IsFlag(tokens[lead]) {
		lead++
	}

	if !r.Freeform {
		for n := lead; n > 0; n-- {
			name := strings.Join(tokens[:n], " ")
			if v, ok := r.Verb(name); ok {
				return Resolution{Verb: name, Rest: tokens[n:], Matched: v}
			}
		}
	}

	return Resolution{
		Verb: strings.Join(tokens[:lead], " "),
		Rest: tokens[lead:],
	}
}

// UnresolvedVerbError reports verb tokens that name no verb.
type UnresolvedVerbError struct {
	Resource    string
	Verb        string
	Suggestions []string
}

func (e *UnresolvedVerbError) Error() string {
	if e.Verb == "" {
		return fmt.Sprintf("no verb given for %s", e.Resource)
	}
	return fmt.Sprintf("unknown verb %q for %s", e.Verb, e.Resource)
}

// Code returns the stable error code.
func (e *UnresolvedVerbError) Code() string { return "UNRESOLVED_VERB" }

// Unresolved builds the error for a failed resolution, with suggestions
// drawn from the resource's verbs. An empty verb suggests every verb.
func Unresolved(r *commands.Resource, res Resolution) *UnresolvedVerbError {
	names := r.VerbNames()
	var suggestions []string
	if res.Verb == "" {
		suggestions = names
	} else {
		suggestions = suggest.Suggest(res.Verb, names, suggest.DefaultLimit)
	}
	return &UnresolvedVerbError{Resource: r.Name, Verb: res.Verb, Suggestions: suggestions}
}

var namespacedID = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://`)

// LooksLikeID reports whether a token is a bare numeric ID or a namespaced
// URI-style ID.
func LooksLikeID(tok string) bool {
	if tok == "" {
		return false
	}
	if strings.TrimLeft(tok, "0123456789") == "" {
		return true
	}
	return namespacedID.MatchString(tok)
}

// NormalizePositional rewrites a leading identifier token into --id <tok>
// for verbs that require an identifier. Tokens are returned unchanged when
// the verb needs no identifier, one is already given, or the first token is
// a flag, help request, or not ID-shaped.
func NormalizePositional(v *commands.Verb, rest []string) []string {
	if v == nil || !v.RequiresID() || len(rest) == 0 {
		return rest
	}
	first := rest[0]
	if IsFlag(first) || first == "help" || !LooksLikeID(first) {
		return rest
	}
	if hasIDFlag(rest) {
		return rest
	}

	out := make([]string, 0, len(rest)+1)
	out = append(out, "--"+commands.FlagID, first)
	return append(out, rest[1:]...)
}

func hasIDFlag(tokens []string) bool {
	long := "--" + commands.FlagID
	for _, tok := range tokens {
		if tok == long || strings.HasPrefix(tok, long+"=") {
			return true
		}
	}
	return false
}
