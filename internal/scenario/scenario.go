// Package scenario names the parameter sets that override a fragment's
// exchange values and terminations.
//
// A scenario specifier is one of three things: none (the default model), a
// single named scenario, or a tuple of candidate names. A tuple is stored and
// serialized as its members joined by Delimiter, so Delimiter may never appear
// inside a real scenario name.
package scenario

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter joins the members of a tuple scenario into one key.
const Delimiter = "____"

// Reserved slot names. "0" is the cached exchange value and "1" the observed
// one; neither may be used as a scenario name.
const (
	CachedSlot   = "0"
	ObservedSlot = "1"
)

var (
	// ErrConflict is returned when more than one member of a tuple scenario
	// matches a stored key.
	ErrConflict = errors.New("scenario conflict")

	// ErrInvalidName is returned for empty, reserved or delimiter-bearing
	// scenario names.
	ErrInvalidName = errors.New("invalid scenario name")

	// ErrTupleNotAllowed is returned by setters that only accept a single
	// scenario.
	ErrTupleNotAllowed = errors.New("operation requires a single scenario")
)

// Spec is a scenario specifier. The zero value is no scenario.
type Spec struct {
	members []string
}

// None returns the empty specifier.
func None() Spec { return Spec{} }

// Named returns a single-scenario specifier. An empty name is None.
func Named(name string) Spec {
	if name == "" {
		return Spec{}
	}
	return Spec{members: []string{name}}
}

// Tuple returns a specifier holding several candidate scenarios. Empty
// members are dropped; a tuple of one is the same as Named.
func Tuple(names ...string) Spec {
	members := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			members = append(members, n)
		}
	}
	if len(members) == 0 {
		return Spec{}
	}
	return Spec{members: members}
}

// Parse is the inverse of Key: it splits a stored key on Delimiter.
func Parse(key string) Spec {
	if key == "" {
		return Spec{}
	}
	return Tuple(strings.Split(key, Delimiter)...)
}

// IsNone reports whether no scenario is in effect.
func (s Spec) IsNone() bool { return len(s.members) == 0 }

// IsTuple reports whether the specifier names more than one scenario.
func (s Spec) IsTuple() bool { return len(s.members) > 1 }

// Members returns a copy of the candidate names.
func (s Spec) Members() []string {
	out := make([]string, len(s.members))
	copy(out, s.members)
	return out
}

// Key is the stored form of the specifier: "" for none, the name for a
// single scenario, the members joined by Delimiter for a tuple.
func (s Spec) Key() string {
	return strings.Join(s.members, Delimiter)
}

// String is Key, with "<none>" for the empty specifier.
func (s Spec) String() string {
	if s.IsNone() {
		return "<none>"
	}
	if s.IsTuple() {
		return "(" + strings.Join(s.members, ", ") + ")"
	}
	return s.members[0]
}

// Single returns the name of a single-scenario specifier. It fails for
// tuples and returns "" for none.
func (s Spec) Single() (string, error) {
	if s.IsTuple() {
		return "", fmt.Errorf("%w: %s", ErrTupleNotAllowed, s)
	}
	return s.Key(), nil
}

// Match resolves the specifier against a set of stored keys. The full key is
// tried first, then each tuple member; two member hits are ErrConflict. It
// returns ok=false when nothing matches, including for none.
func (s Spec) Match(has func(key string) bool) (string, bool, error) {
	if s.IsNone() {
		return "", false, nil
	}
	if key := s.Key(); has(key) {
		return key, true, nil
	}
	if !s.IsTuple() {
		return "", false, nil
	}
	var match string
	found := false
	for _, m := range s.members {
		if !has(m) {
			continue
		}
		if found {
			return "", false, fmt.Errorf("%w: %s matches both %q and %q", ErrConflict, s, match, m)
		}
		match, found = m, true
	}
	return match, found, nil
}

// ValidateName checks that name can be used as a stored scenario key.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	case name == CachedSlot || name == ObservedSlot:
		return fmt.Errorf("%w: %q is a reserved slot", ErrInvalidName, name)
	case strings.Contains(name, Delimiter):
		return fmt.Errorf("%w: %q contains the delimiter %q", ErrInvalidName, name, Delimiter)
	}
	return nil
}
