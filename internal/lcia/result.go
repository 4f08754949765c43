package lcia

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/fragmentgo/internal/flow"
)

// OtherKey groups components whose aggregation key cannot be determined.
const OtherKey = "other"

// KeyFunc maps a component entity to an aggregation key. Returning false
// sends the component to OtherKey.
type KeyFunc func(entity any) (string, bool)

// TotalKey groups every component together. It is what "*" selects.
func TotalKey(any) (string, bool) { return "result", true }

// Result is the impact of a set of components for one quantity.
type Result struct {
	Quantity *flow.Quantity
	Scenario string

	scale      float64
	components map[string]*AggregateScore
	order      []string
}

// NewResult returns an empty result for q.
func NewResult(q *flow.Quantity, scenario string) *Result {
	return &Result{
		Quantity:   q,
		Scenario:   scenario,
		scale:      1,
		components: make(map[string]*AggregateScore),
	}
}

// Scale is the multiplier applied to every entry.
func (r *Result) Scale() float64 { return r.scale }

// SetScale changes the multiplier applied to every entry.
func (r *Result) SetScale(s float64) { r.scale = s }

// AddComponent registers a component. Re-adding a key is a no-op.
func (r *Result) AddComponent(key string, entity any) {
	if _, ok := r.components[key]; ok {
		return
	}
	r.components[key] = newAggregateScore(key, entity)
	r.order = append(r.order, key)
}

// AddScore adds a detailed entry under the component key.
func (r *Result) AddScore(key string, d DetailedResult) error {
	if d.Quantity != nil && r.Quantity != nil && d.Quantity.ID != r.Quantity.ID {
		return fmt.Errorf("%w: factor for %s added to result for %s", ErrInconsistentQuantity, d.Quantity, r.Quantity)
	}
	r.AddComponent(key, nil)
	return r.components[key].addDetailed(d)
}

// AddSummary adds a summary entry under the component key.
func (r *Result) AddSummary(key string, entity any, entityKey string, nodeWeight, unitScore float64) error {
	r.AddComponent(key, entity)
	return r.components[key].addSummary(SummaryResult{
		Entity:     entityKey,
		NodeWeight: nodeWeight,
		UnitScore:  unitScore,
	})
}

// Component returns the component stored under key.
func (r *Result) Component(key string) (*AggregateScore, bool) {
	c, ok := r.components[key]
	return c, ok
}

// Components lists components in insertion order.
func (r *Result) Components() []*AggregateScore {
	out := make([]*AggregateScore, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.components[k])
	}
	return out
}

// Keys lists component keys in insertion order.
func (r *Result) Keys() []string {
	return append([]string(nil), r.order...)
}

// Total sums every component.
func (r *Result) Total() float64 {
	var total float64
	for _, k := range r.order {
		total += r.components[k].Cumulative(r.scale)
	}
	return total
}

// Range sums the absolute values of every component.
func (r *Result) Range() float64 {
	var total float64
	for _, k := range r.order {
		v := r.components[k].Cumulative(r.scale)
		if v < 0 {
			v = -v
		}
		total += v
	}
	return total
}

// Aggregate regroups components by key. A nil key groups everything under
// one component, like TotalKey.
func (r *Result) Aggregate(key KeyFunc) (*Result, error) {
	if key == nil {
		key = TotalKey
	}
	agg := NewResult(r.Quantity, r.Scenario)
	for _, k := range r.order {
		c := r.components[k]
		group, ok := key(c.Entity)
		if !ok {
			group = OtherKey
		}
		if err := agg.AddSummary(group, group, k, 1, c.Cumulative(r.scale)); err != nil {
			return nil, err
		}
	}
	return agg, nil
}

// Contributions returns the cumulative score of each component, largest
// first.
func (r *Result) Contributions() []Contribution {
	out := make([]Contribution, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, Contribution{Key: k, Score: r.components[k].Cumulative(r.scale)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Contribution is one component's share of a Result.
type Contribution struct {
	Key   string
	Score float64
}

// String is the total followed by the quantity.
func (r *Result) String() string {
	return fmt.Sprintf("%10.3g %s", r.Total(), r.Quantity)
}
