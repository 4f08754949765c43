package builder

import (
	"fmt"

	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// DetectCycles checks that no reference fragment reaches itself through
// subfragment terminations under any scenario. Background terminations do
// not count; traversal never enters a background fragment.
func DetectCycles(store *fragment.Store) error {
	edges, err := subfragmentEdges(store)
	if err != nil {
		return err
	}

	// Depth-first search with the classic two sets: permanent nodes are
	// known to be safe, temporary ones are on the current path.
	permanent := make(map[fragid.ID]bool)
	temporary := make(map[fragid.ID]bool)

	var visit func(id fragid.ID) error
	visit = func(id fragid.ID) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			name := id.String()
			if f, ok := store.Get(id); ok {
				name = f.Name
			}
			return fmt.Errorf("%w involving fragment %q", ErrCycle, name)
		}
		temporary[id] = true
		for _, next := range edges[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, root := range store.Roots() {
		if err := visit(root.ID); err != nil {
			return err
		}
	}
	return nil
}

// subfragmentEdges maps each reference fragment to the reference fragments
// its tree uses as subfragments.
func subfragmentEdges(store *fragment.Store) (map[fragid.ID][]fragid.ID, error) {
	edges := make(map[fragid.ID][]fragid.ID)
	for _, root := range store.Roots() {
		for _, f := range fragment.Tree(store, root) {
			for _, key := range append([]string{""}, f.TerminationKeys()...) {
				sc := scenario.None()
				if key != "" {
					sc = scenario.Named(key)
				}
				term, err := f.Termination(sc)
				if err != nil {
					return nil, err
				}
				if term.Kind() != fragment.Subfragment {
					continue
				}
				target, err := store.Lookup(term.Target())
				if err != nil {
					return nil, err
				}
				top, err := fragment.Top(store, target)
				if err != nil {
					return nil, err
				}
				edges[root.ID] = append(edges[root.ID], top.ID)
			}
		}
	}
	return edges, nil
}
