package traversal

import (
	"fmt"

	"github.com/specialistvlad/fragmentgo/internal/lcia"
)

// ToLCIA folds the score caches of the terminations met in a traversal into
// one Result per quantity. Each record contributes its node weight times the
// cached total of its termination; the contribution is negated when the
// termination runs in the same direction as its fragment.
func ToLCIA(records []FragmentFlow) (*lcia.Results, error) {
	entity := ""
	if len(records) > 0 {
		entity = records[0].Fragment.ID.String()
	}
	results := lcia.NewResults(entity)

	for _, r := range records {
		if r.Term.IsNull() {
			continue
		}
		for _, cached := range r.Term.Scores().List() {
			q := cached.Quantity
			res, ok := results.Get(q.ID)
			if !ok {
				res = lcia.NewResult(q, cached.Scenario)
				results.Set(res)
			}

			value := cached.Total()
			if value*r.NodeWeight == 0 {
				continue
			}
			if r.Term.Direction() == r.Fragment.Direction() {
				value = -value
			}

			key := r.Fragment.ID.String()
			res.AddComponent(key, r)
			if err := res.AddScore(key, lcia.DetailedResult{
				Process:       key,
				Flow:          r.Term.TermFlow().ID,
				Direction:     r.Term.Direction(),
				ExchangeValue: r.NodeWeight,
				Factor:        value,
				Location:      r.Term.SpatialScope(),
				Quantity:      q,
				Source:        r,
			}); err != nil {
				return nil, fmt.Errorf("aggregate %s: %w", r.Fragment, err)
			}
		}
	}
	return results, nil
}

// StageKey groups traversal records by their fragment's stage.
func StageKey(entity any) (string, bool) {
	ff, ok := entity.(FragmentFlow)
	if !ok || ff.Fragment == nil {
		return "", false
	}
	return ff.Fragment.Stage(), true
}

// FragmentKey groups traversal records by fragment name.
func FragmentKey(entity any) (string, bool) {
	ff, ok := entity.(FragmentFlow)
	if !ok || ff.Fragment == nil {
		return "", false
	}
	return ff.Fragment.Name, true
}
