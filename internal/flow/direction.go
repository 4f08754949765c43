package flow

import (
	"fmt"
	"strings"
)

// Direction is the sense of a flow relative to the node that owns it.
type Direction int

const (
	// Input is a flow entering the parent node.
	Input Direction = iota
	// Output is a flow leaving the parent node.
	Output
)

// ParseDirection accepts "Input" or "Output" in any letter case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "input":
		return Input, nil
	case "output":
		return Output, nil
	}
	return Input, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// String returns "Input" or "Output".
func (d Direction) String() string {
	if d == Output {
		return "Output"
	}
	return "Input"
}

// Complement returns the opposite direction.
func (d Direction) Complement() Direction {
	if d == Output {
		return Input
	}
	return Output
}

// InflowSign is the single sign convention for conserved quantities: a flow
// entering the node it is measured against counts +1, a flow leaving it -1.
//
// A child's direction is measured against its parent, so the child's
// contribution at the parent is child.Direction.InflowSign(). A node's own
// reference flow is measured against its parent too, so seen from the node
// itself the sign is Direction.Complement().InflowSign().
func (d Direction) InflowSign() float64 {
	if d == Output {
		return -1
	}
	return 1
}

// Arrow is the short glyph used in tree displays.
func (d Direction) Arrow() string {
	if d == Output {
		return "=>="
	}
	return "-<-"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
