// Package shellquote quotes and splits command lines for display.
package shellquote

import (
	"strings"

	kshellquote "github.com/kballard/go-shellquote"
)

// Quote wraps s in single quotes, escaping any internal single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// DoubleQuote wraps s in double quotes, escaping the characters a shell
// still interprets inside them.
func DoubleQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}

// QuoteIfNeeded quotes strings that are likely to be interpreted by a shell.
func QuoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n#[]()|!\"'$`\\*?&;<>{}~") {
		return Quote(s)
	}
	return s
}

// Join quotes each argument as needed and joins them with spaces.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteIfNeeded(a)
	}
	return strings.Join(quoted, " ")
}

// Split breaks a command line into words the way a POSIX shell would. When
// the line cannot be parsed (for example an unterminated quote) it falls
// back to splitting on whitespace.
func Split(line string) []string {
	words, err := kshellquote.Split(line)
	if err != nil {
		return strings.Fields(line)
	}
	return words
}
