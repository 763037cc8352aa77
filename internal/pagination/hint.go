// Package pagination formats the follow-up command for the next page of a
// connection.
package pagination

import (
	"strings"

	"github.com/aidanlsb/shopctl/internal/shellquote"
	"github.com/aidanlsb/shopctl/internal/value"
)

// PageInfo is a connection's paging state.
type PageInfo struct {
	HasNextPage bool
	EndCursor   string
}

// FromValue reads {hasNextPage, endCursor} from a pageInfo object.
func FromValue(v value.Value) (PageInfo, bool) {
	obj, ok := v.AsObject()
	if !ok {
		return PageInfo{}, false
	}
	var info PageInfo
	if hn, ok := obj.Get("hasNextPage"); ok {
		info.HasNextPage, _ = hn.AsBool()
	}
	if ec, ok := obj.Get("endCursor"); ok {
		info.EndCursor, _ = ec.AsString()
	}
	return info, true
}

const afterFlag = "--after"

// Hint returns the command that fetches the page after info, derived from
// the command line that produced it. Every argument except a previous
// --after is kept, so page size, filter, sort key and reverse carry over.
// It returns "" when there is no further page.
func Hint(base string, info PageInfo) string {
	return HintArgs(shellquote.Split(base), info)
}

// HintArgs is Hint for an already split command line.
func HintArgs(args []string, info PageInfo) string {
	if !info.HasNextPage || info.EndCursor == "" {
		return ""
	}

	kept := make([]string, 0, len(args)+2)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == afterFlag:
			i++ // and its value
			continue
		case strings.HasPrefix(arg, afterFlag+"="):
			continue
		}
		kept = append(kept, arg)
	}

	return shellquote.Join(kept) + " " + afterFlag + " " + shellquote.DoubleQuote(info.EndCursor)
}
