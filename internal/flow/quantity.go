package flow

// Quantity is a measurable property (mass, energy, an impact category) with
// a reference unit.
type Quantity struct {
	ID   string
	Name string
	Unit string
	// Method marks an LCIA indicator rather than a physical property.
	Method bool
}

// String returns the quantity name and unit.
func (q *Quantity) String() string {
	if q == nil {
		return "<nil quantity>"
	}
	name := q.Name
	if name == "" {
		name = q.ID
	}
	return name + " [" + q.Unit + "]"
}
