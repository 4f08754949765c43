package lcia

import (
	"github.com/specialistvlad/fragmentgo/internal/flow"
)

// Augmenter is implemented by component entities that can absorb a merged
// duplicate, such as traversal records. The argument is the duplicate's
// Source when it has one, otherwise the DetailedResult or SummaryResult
// being merged.
type Augmenter interface {
	Augment(dup any) any
}

// DetailedResult is one exchange value times one characterization factor.
type DetailedResult struct {
	// Process identifies the entity that owns the exchange.
	Process       string
	Flow          string
	Direction     flow.Direction
	ExchangeValue float64
	Factor        float64
	Location      string
	// Quantity is checked against the owning Result when set.
	Quantity *flow.Quantity
	// Source is the entity the entry was computed from, if any.
	Source any
}

type detailKey struct {
	process string
	flow    string
}

func (d DetailedResult) key() detailKey {
	return detailKey{process: d.Process, flow: d.Flow}
}

func (d DetailedResult) result(scale float64) float64 {
	return d.ExchangeValue * scale * d.Factor
}

// SummaryResult stands in for a detailed result when only a node weight and
// a unit score are known.
type SummaryResult struct {
	Entity     string
	NodeWeight float64
	UnitScore  float64
}

func (s SummaryResult) result(scale float64) float64 {
	return s.NodeWeight * s.UnitScore * scale
}

// AggregateScore is one component of a Result.
type AggregateScore struct {
	Key    string
	Entity any

	details   []DetailedResult
	summaries []SummaryResult
	// merged indexes summaries that replaced duplicate details
	merged map[detailKey]int
}

func newAggregateScore(key string, entity any) *AggregateScore {
	if entity == nil {
		entity = key
	}
	return &AggregateScore{Key: key, Entity: entity}
}

// Details returns a copy of the detailed entries.
func (a *AggregateScore) Details() []DetailedResult {
	return append([]DetailedResult(nil), a.details...)
}

// Summaries returns a copy of the summary entries.
func (a *AggregateScore) Summaries() []SummaryResult {
	return append([]SummaryResult(nil), a.summaries...)
}

// Cumulative sums every entry at the given scale.
func (a *AggregateScore) Cumulative(scale float64) float64 {
	var total float64
	for _, d := range a.details {
		total += d.result(scale)
	}
	for _, s := range a.summaries {
		total += s.result(scale)
	}
	return total
}

func (a *AggregateScore) augment(dup any) {
	if aug, ok := a.Entity.(Augmenter); ok {
		a.Entity = aug.Augment(dup)
	}
}

func (a *AggregateScore) augmentDetail(d DetailedResult) {
	if d.Source != nil {
		a.augment(d.Source)
		return
	}
	a.augment(d)
}

func (a *AggregateScore) addDetailed(d DetailedResult) error {
	k := d.key()
	if idx, ok := a.merged[k]; ok {
		s := &a.summaries[idx]
		if d.Factor == 0 {
			return nil
		}
		if s.UnitScore != d.Factor {
			return &DuplicateResultError{
				Component: a.Key,
				Key:       d.Process + "/" + d.Flow,
				Existing:  s.UnitScore,
				Incoming:  d.Factor,
			}
		}
		s.NodeWeight += d.ExchangeValue
		a.augmentDetail(d)
		return nil
	}
	for i, other := range a.details {
		if other.key() != k {
			continue
		}
		if d.Factor == 0 {
			return nil
		}
		if other.Factor != d.Factor {
			return &DuplicateResultError{
				Component: a.Key,
				Key:       d.Process + "/" + d.Flow,
				Existing:  other.Factor,
				Incoming:  d.Factor,
			}
		}
		a.details = append(a.details[:i], a.details[i+1:]...)
		if a.merged == nil {
			a.merged = make(map[detailKey]int)
		}
		a.merged[k] = len(a.summaries)
		a.summaries = append(a.summaries, SummaryResult{
			Entity:     other.Process,
			NodeWeight: other.ExchangeValue + d.ExchangeValue,
			UnitScore:  d.Factor,
		})
		a.augmentDetail(d)
		return nil
	}
	a.details = append(a.details, d)
	return nil
}

func (a *AggregateScore) addSummary(s SummaryResult) error {
	for i := range a.summaries {
		other := &a.summaries[i]
		if other.Entity != s.Entity {
			continue
		}
		if other.UnitScore != s.UnitScore {
			return &DuplicateResultError{
				Component: a.Key,
				Key:       s.Entity,
				Existing:  other.UnitScore,
				Incoming:  s.UnitScore,
			}
		}
		other.NodeWeight += s.NodeWeight
		a.augment(s)
		return nil
	}
	a.summaries = append(a.summaries, s)
	return nil
}
