package record

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// DefaultKey is the termination key of the default scenario.
const DefaultKey = scenario.CachedSlot

// Fragment is the record of one fragment node.
type Fragment struct {
	ID             string                 `json:"entityId" yaml:"entityId" msgpack:"entityId"`
	Name           string                 `json:"name" yaml:"name" msgpack:"name"`
	Parent         string                 `json:"parent,omitempty" yaml:"parent,omitempty" msgpack:"parent,omitempty"`
	Flow           string                 `json:"flow" yaml:"flow" msgpack:"flow"`
	Direction      string                 `json:"direction" yaml:"direction" msgpack:"direction"`
	Stage          string                 `json:"stage,omitempty" yaml:"stage,omitempty" msgpack:"stage,omitempty"`
	IsBackground   bool                   `json:"isBackground" yaml:"isBackground" msgpack:"isBackground"`
	IsBalanceFlow  bool                   `json:"isBalanceFlow" yaml:"isBalanceFlow" msgpack:"isBalanceFlow"`
	ExchangeValues map[string]float64     `json:"exchangeValues" yaml:"exchangeValues" msgpack:"exchangeValues"`
	Terminations   map[string]Termination `json:"terminations" yaml:"terminations" msgpack:"terminations"`
}

// Termination is the record of one termination. Fields equal to the
// defaults the store derives are left empty.
type Termination struct {
	Kind      string  `json:"kind" yaml:"kind" msgpack:"kind"`
	Process   string  `json:"process,omitempty" yaml:"process,omitempty" msgpack:"process,omitempty"`
	Target    string  `json:"target,omitempty" yaml:"target,omitempty" msgpack:"target,omitempty"`
	TermFlow  string  `json:"termFlow,omitempty" yaml:"termFlow,omitempty" msgpack:"termFlow,omitempty"`
	Direction string  `json:"direction,omitempty" yaml:"direction,omitempty" msgpack:"direction,omitempty"`
	Descend   *bool   `json:"descend,omitempty" yaml:"descend,omitempty" msgpack:"descend,omitempty"`
	InboundEV float64 `json:"inboundExchangeValue,omitempty" yaml:"inboundExchangeValue,omitempty" msgpack:"inboundExchangeValue,omitempty"`
	Scores    []Score `json:"scoreCache,omitempty" yaml:"scoreCache,omitempty" msgpack:"scoreCache,omitempty"`
}

// Score is one cached unit score, in cache order.
type Score struct {
	Quantity string  `json:"quantity" yaml:"quantity" msgpack:"quantity"`
	Score    float64 `json:"score" yaml:"score" msgpack:"score"`
}

// FromFragment builds the record of f.
func FromFragment(f *fragment.Fragment) (*Fragment, error) {
	evs := f.ExchangeValues().Snapshot()
	for k := range evs {
		if err := ValidateKey(k); err != nil {
			return nil, fmt.Errorf("fragment %s: %w", f, err)
		}
	}

	r := &Fragment{
		ID:             f.ID.String(),
		Name:           f.Name,
		Flow:           f.Flow.ID,
		Direction:      f.Direction().String(),
		Stage:          f.Stage(),
		IsBackground:   f.IsBackground(),
		IsBalanceFlow:  f.IsBalanceFlow(),
		ExchangeValues: evs,
		Terminations:   make(map[string]Termination),
	}
	if pid, ok := f.Parent(); ok {
		r.Parent = pid.String()
	}

	r.Terminations[DefaultKey] = fromTermination(f, f.DefaultTermination())
	for _, k := range f.TerminationKeys() {
		if err := ValidateKey(k); err != nil {
			return nil, fmt.Errorf("fragment %s: %w", f, err)
		}
		t, err := f.Termination(scenario.Named(k))
		if err != nil {
			return nil, err
		}
		r.Terminations[k] = fromTermination(f, t)
	}
	return r, nil
}

func fromTermination(f *fragment.Fragment, t *fragment.Termination) Termination {
	rt := Termination{Kind: t.Kind().String()}
	switch t.Kind() {
	case fragment.Null:
		return rt
	case fragment.Process:
		rt.Process = t.Process().ID
	case fragment.Subfragment, fragment.Background:
		rt.Target = t.Target().String()
	}
	if !t.TermFlow().Match(f.Flow) {
		rt.TermFlow = t.TermFlow().ID
	}
	if t.Direction() != f.Direction().Complement() {
		rt.Direction = t.Direction().String()
	}
	if !t.Descend() {
		no := false
		rt.Descend = &no
	}
	if t.InboundEV() != 1 {
		rt.InboundEV = t.InboundEV()
	}
	for _, res := range t.Scores().List() {
		rt.Scores = append(rt.Scores, Score{Quantity: res.Quantity.ID, Score: res.Total()})
	}
	return rt
}

// FromTree builds the records of every fragment under id, parents first.
func FromTree(l fragment.ChildLookup, id fragid.ID) ([]*Fragment, error) {
	root, ok := l.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", fragment.ErrNotFound, id)
	}
	var out []*Fragment
	for _, f := range fragment.Tree(l, root) {
		r, err := FromFragment(f)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ValidateKey checks a stored exchange value or termination key: a reserved
// slot, a scenario name, or valid names joined by the delimiter.
func ValidateKey(key string) error {
	if key == scenario.CachedSlot || key == scenario.ObservedSlot {
		return nil
	}
	for _, name := range strings.Split(key, scenario.Delimiter) {
		if err := scenario.ValidateName(name); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidKey, key, err)
		}
	}
	return nil
}
