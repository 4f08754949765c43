// Package fragid defines the stable identifiers used to key fragments in the
// arena. Traversal visited-sets and result components are keyed by ID, never
// by pointer identity.
package fragid

import (
	"fmt"

	"github.com/google/uuid"
)

// namespace seeds name-derived IDs so that the same model file always yields
// the same fragment IDs.
var namespace = uuid.MustParse("6f1d0c52-6b4e-4d8a-9b1e-3f0a2c5d7e91")

// ID identifies a fragment.
type ID struct {
	u uuid.UUID
}

// Nil is the zero ID.
var Nil = ID{}

// New returns a random ID.
func New() ID {
	return ID{u: uuid.New()}
}

// FromName derives a deterministic ID from a qualified name.
func FromName(name string) ID {
	return ID{u: uuid.NewSHA1(namespace, []byte(name))}
}

// Parse reads the canonical string form of an ID.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("invalid fragment id %q: %w", s, err)
	}
	return ID{u: u}, nil
}

// MustParse is Parse that panics on error. Intended for tests and fixtures.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsNil reports whether the ID is unset.
func (id ID) IsNil() bool { return id.u == uuid.Nil }

// String is the canonical form.
func (id ID) String() string { return id.u.String() }

// Short is the first five hex digits, as used in tree displays.
func (id ID) Short() string { return id.u.String()[:5] }

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return id.u.MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	return id.u.UnmarshalText(b)
}
