package report

import (
	"fmt"

	"github.com/specialistvlad/fragmentgo/internal/fragment"
)

// Glyph is the four-character marker of a termination. Background targets
// are looked up to tell a cut-off from a terminated background.
func Glyph(l fragment.ChildLookup, t *fragment.Termination) string {
	switch t.Kind() {
	case fragment.Null:
		return "---:"
	case fragment.Foreground:
		return "-O  "
	case fragment.Process:
		return "-*  "
	case fragment.Background:
		if bg, ok := l.Get(t.Target()); ok && bg.DefaultTermination().IsNull() {
			return "--C "
		}
		return "-B  "
	case fragment.Subfragment:
		if t.Descend() {
			return "-#: "
		}
		return "-#  "
	}
	return "-?  "
}

// TermUnit is the inbound exchange value and unit of the term flow, as
// shown above a node's children.
func TermUnit(t *fragment.Termination) string {
	return fmt.Sprintf("%4g %s", t.InboundEV(), t.TermFlow().Unit())
}
