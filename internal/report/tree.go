package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// Tree writes the fragment tree under id. In observed mode nodes without an
// observed value are left out.
func Tree(w io.Writer, l fragment.ChildLookup, id fragid.ID, sc scenario.Spec, observed bool) error {
	root, ok := l.Get(id)
	if !ok {
		return fmt.Errorf("tree: %w: %s", fragment.ErrNotFound, id)
	}
	var b strings.Builder
	if err := writeNode(&b, l, root, "", sc, observed); err != nil {
		return err
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeNode(b *strings.Builder, l fragment.ChildLookup, f *fragment.Fragment, prefix string, sc scenario.Spec, observed bool) error {
	children := l.Children(f.ID)
	term, err := f.Termination(sc)
	if err != nil {
		return err
	}
	if len(children) > 0 && term.IsNull() {
		return fmt.Errorf("%w: null-terminated fragment %s has children", fragment.ErrInvalidParentChild, f)
	}

	obs := f.ExchangeValues().Observed()
	open, closing := "(", ")"
	if obs != 0 {
		open, closing = "[", "]"
	}
	if !observed || obs != 0 {
		ev, err := f.ExchangeValue(sc, observed)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "   %s%s%s %s %s%s%7.3g %s%s %s\n",
			prefix, f.Direction().Arrow(), Glyph(l, term), f.ID.Short(),
			open, f.Modifier(sc), ev, f.Flow.Unit(), closing, f.Name)
	}
	if len(children) == 0 {
		return nil
	}

	fmt.Fprintf(b, "   %s [%s] %s\n", prefix, TermUnit(term), f.Name)
	prefix += "    | "
	sortChildren(children)
	stage := ""
	for _, c := range children {
		if c.Stage() != stage {
			stage = c.Stage()
			fmt.Fprintf(b, "   %s %5s Stage: %s\n", prefix, "", stage)
		}
		if err := writeNode(b, l, c, prefix, sc, observed); err != nil {
			return err
		}
	}
	fmt.Fprintf(b, "   %s\n", prefix[:len(prefix)-3]+" x ")
	return nil
}

// sortChildren orders children by stage, then boundary flows before
// terminated ones, then backgrounds last.
func sortChildren(children []*fragment.Fragment) {
	rank := func(f *fragment.Fragment) int {
		t := f.DefaultTermination()
		switch {
		case t.IsNull():
			return 0
		case t.Kind() == fragment.Background:
			return 2
		}
		return 1
	}
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		if a.Stage() != b.Stage() {
			return a.Stage() < b.Stage()
		}
		return rank(a) < rank(b)
	})
}
