package fixture

import (
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error reports an invalid fixture document. Field is the dotted path of
// the offending value, or the entity kind for cross-record checks.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos

	// More counts further problems found in the same document.
	More int
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	fmt.Fprintf(&b, "%s: %s", e.Field, e.Message)
	if e.More > 0 {
		fmt.Fprintf(&b, " (and %d more)", e.More)
	}
	return b.String()
}

// fromCUE converts a CUE evaluation error into an *Error describing the
// first problem. Errors without CUE detail are returned unchanged.
func fromCUE(err error) error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return err
	}

	first := list[0]
	format, args := first.Msg()
	out := &Error{
		Field:   "document",
		Message: fmt.Sprintf(format, args...),
		More:    len(list) - 1,
	}
	// Paths are reported relative to the #Document definition the input is
	// unified with.
	path := first.Path()
	if len(path) > 0 && path[0] == "#Document" {
		path = path[1:]
	}
	if len(path) > 0 {
		out.Field = strings.Join(path, ".")
	}
	if pos := cueerrors.Positions(first); len(pos) > 0 {
		out.Pos = pos[0]
	}
	return out
}
