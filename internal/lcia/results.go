package lcia

// Results maps quantity IDs to Results, remembering insertion order.
type Results struct {
	Entity string

	byQuantity map[string]*Result
	order      []string
}

// NewResults returns an empty set of results owned by entity.
func NewResults(entity string) *Results {
	return &Results{Entity: entity, byQuantity: make(map[string]*Result)}
}

// Set stores r under its quantity ID, replacing any previous result.
func (rs *Results) Set(r *Result) {
	id := r.Quantity.ID
	if _, ok := rs.byQuantity[id]; !ok {
		rs.order = append(rs.order, id)
	}
	rs.byQuantity[id] = r
}

// Get returns the result for a quantity ID.
func (rs *Results) Get(quantityID string) (*Result, bool) {
	if rs == nil {
		return nil, false
	}
	r, ok := rs.byQuantity[quantityID]
	return r, ok
}

// Has reports whether a result for the quantity ID is stored.
func (rs *Results) Has(quantityID string) bool {
	_, ok := rs.Get(quantityID)
	return ok
}

// List returns results in insertion order.
func (rs *Results) List() []*Result {
	if rs == nil {
		return nil
	}
	out := make([]*Result, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, rs.byQuantity[id])
	}
	return out
}

// Len is the number of quantities held.
func (rs *Results) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.order)
}

// Merge copies every result of other into rs.
func (rs *Results) Merge(other *Results) {
	for _, r := range other.List() {
		rs.Set(r)
	}
}

// Clone returns a shallow copy: the map is new, the Results are shared.
func (rs *Results) Clone() *Results {
	out := NewResults(rs.Entity)
	out.Merge(rs)
	return out
}
