package fragment

import (
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// Fragment is a node in a fragment tree: a flow of something into or out of
// its parent. A fragment without a parent is a reference fragment, or a
// background fragment when created as one; a background fragment can never
// acquire a parent.
type Fragment struct {
	ID   fragid.ID
	Name string
	Flow *flow.Flow

	parent     fragid.ID
	background bool
	evs        *ExchangeValues

	mu        sync.RWMutex
	direction flow.Direction
	stage     string
	terms     map[string]*Termination
	balance   bool
	conserved *flow.Quantity
}

func newFragment(id fragid.ID, name string, f *flow.Flow, dir flow.Direction, parent fragid.ID, background bool) *Fragment {
	frag := &Fragment{
		ID:         id,
		Name:       name,
		Flow:       f,
		parent:     parent,
		background: background,
		evs:        newExchangeValues(),
		direction:  dir,
		terms:      make(map[string]*Termination),
	}
	frag.terms[""] = newNullTermination(frag)
	return frag
}

// Parent returns the parent ID, or false for a root.
func (f *Fragment) Parent() (fragid.ID, bool) {
	return f.parent, !f.parent.IsNil()
}

// IsRoot reports whether the fragment has no parent.
func (f *Fragment) IsRoot() bool { return f.parent.IsNil() }

// IsBackground reports whether the fragment was created as a background
// fragment.
func (f *Fragment) IsBackground() bool { return f.background }

// Direction is Input or Output relative to the parent. For a root it is
// relative to whoever consumes the root.
func (f *Fragment) Direction() flow.Direction {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.direction
}

// Stage is the display group of the fragment.
func (f *Fragment) Stage() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stage
}

// SetStage names the display group of the fragment.
func (f *Fragment) SetStage(stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stage = stage
}

// ExchangeValues exposes the magnitude store.
func (f *Fragment) ExchangeValues() *ExchangeValues { return f.evs }

// IsBalanceFlow reports whether the magnitude is computed by balancing the
// parent.
func (f *Fragment) IsBalanceFlow() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.balance
}

// ConservedQuantity is the quantity balanced across this node by its
// balance child, or nil.
func (f *Fragment) ConservedQuantity() *flow.Quantity {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.conserved
}

// ExchangeValue resolves the fragment's magnitude under a scenario.
func (f *Fragment) ExchangeValue(s scenario.Spec, observed bool) (float64, error) {
	ev, err := f.evs.resolve(s, observed, f.IsBalanceFlow(), f.IsRoot())
	if err != nil {
		return 0, fmt.Errorf("fragment %s exchange value: %w", f.ID.Short(), err)
	}
	return ev, nil
}

// Termination resolves the termination in effect under a scenario, falling
// back to the default one.
func (f *Fragment) Termination(s scenario.Spec) (*Termination, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	key, ok, err := s.Match(func(k string) bool {
		_, has := f.terms[k]
		return has
	})
	if err != nil {
		return nil, fmt.Errorf("fragment %s termination: %w", f.ID.Short(), err)
	}
	if !ok {
		key = ""
	}
	return f.terms[key], nil
}

// DefaultTermination is the termination used when no scenario applies.
func (f *Fragment) DefaultTermination() *Termination {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.terms[""]
}

// TerminationKeys lists the scenario keys that carry their own termination.
func (f *Fragment) TerminationKeys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	keys := make([]string, 0, len(f.terms))
	for k := range f.terms {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Scenarios lists every scenario key the fragment itself knows about.
func (f *Fragment) Scenarios() []string {
	seen := make(map[string]struct{})
	for _, k := range f.evs.Keys() {
		seen[k] = struct{}{}
	}
	for _, k := range f.TerminationKeys() {
		seen[k] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Modifier is the one-character marker shown in trees: "=" for a balance
// flow, "*" for a scenario exchange value, "+" for a scenario termination,
// "%" for both and " " for neither.
func (f *Fragment) Modifier(s scenario.Spec) string {
	if f.IsBalanceFlow() {
		return "="
	}
	evKey, evOK, _ := s.Match(f.evs.Has)
	termOK := false
	if _, ok, _ := s.Match(f.hasTerm); ok {
		termOK = true
	}
	evScenario := false
	if evOK {
		if v, _ := f.evs.Scenario(evKey); v != f.evs.Cached() {
			evScenario = true
		}
	}
	switch {
	case evScenario && termOK:
		return "%"
	case evScenario:
		return "*"
	case termOK:
		return "+"
	}
	return " "
}

func (f *Fragment) hasTerm(k string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.terms[k]
	return ok
}

// SetExchangeValue stores a magnitude for a single named scenario. The
// reserved names "0" and "1" address the cached and observed slots.
func (f *Fragment) SetExchangeValue(s scenario.Spec, v float64) error {
	name, err := s.Single()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScenarioConflict, err)
	}
	switch name {
	case scenario.CachedSlot:
		return f.evs.SetCached(v)
	case scenario.ObservedSlot:
		f.evs.setObserved(v)
		return nil
	}
	if err := scenario.ValidateName(name); err != nil {
		return err
	}
	f.evs.set(name, v)
	return nil
}

// SetCachedEV assigns the default magnitude once.
func (f *Fragment) SetCachedEV(v float64) error {
	return f.evs.SetCached(v)
}

// ResetCachedEV allows the default magnitude to be assigned again.
func (f *Fragment) ResetCachedEV() {
	f.evs.ResetCached()
}

// ScaleEVs multiplies every stored magnitude by factor.
func (f *Fragment) ScaleEVs(factor float64) {
	f.evs.Scale(factor)
}

// CacheBalance memoizes a magnitude computed during traversal.
func (f *Fragment) CacheBalance(s scenario.Spec, v float64) {
	f.evs.CacheBalance(s, v)
}

// ReverseDirection flips the fragment's direction and negates its stored
// magnitudes. Termination directions are left alone: the fragment's
// direction is a convention, the termination's is not.
func (f *Fragment) ReverseDirection() {
	f.mu.Lock()
	f.direction = f.direction.Complement()
	f.mu.Unlock()
	f.evs.Scale(-1)
}

func (f *Fragment) setTermination(key string, t *Termination) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terms[key] = t
}

func (f *Fragment) setBalance(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance = v
}

func (f *Fragment) setConserved(q *flow.Quantity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q != nil && f.conserved != nil {
		return fmt.Errorf("%w: %s already conserves %s", ErrBalanceAlreadySet, f.ID.Short(), f.conserved)
	}
	f.conserved = q
	return nil
}

func (f *Fragment) clearConserved() {
	f.mu.Lock()
	f.conserved = nil
	f.mu.Unlock()
}

// String is the short ID and name.
func (f *Fragment) String() string {
	return fmt.Sprintf("%s %s", f.ID.Short(), f.Name)
}
