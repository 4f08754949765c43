package builder

import (
	"github.com/hashicorp/go-multierror"
	"github.com/specialistvlad/fragmentgo/internal/config"
	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
)

// entities registers quantities, flows, conversions and processes.
func (b *build) entities(m *config.Model) error {
	var errs *multierror.Error

	for _, q := range m.Quantities {
		if err := b.cat.AddQuantity(&flow.Quantity{ID: q.Name, Name: q.Name, Unit: q.Unit, Method: q.Method}); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	for _, f := range m.Flows {
		ref, ok := b.cat.Quantity(f.Quantity)
		if !ok {
			errs = appendErr(errs, "flow %q: %w: quantity %q", f.Name, ErrUnknownReference, f.Quantity)
			continue
		}
		fl := flow.New(f.Name, f.Name, ref)
		fl.Elementary = f.Elementary
		fl.Compartment = f.Compartment
		for _, cf := range f.Factors {
			q, ok := b.cat.Quantity(cf.Quantity)
			if !ok {
				errs = appendErr(errs, "flow %q factor: %w: quantity %q", f.Name, ErrUnknownReference, cf.Quantity)
				continue
			}
			fl.SetLocatedCF(q, cf.Value, cf.Location)
		}
		if err := b.cat.AddFlow(fl); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	for _, c := range m.Conversions {
		q, ok := b.cat.Quantity(c.Quantity)
		if !ok {
			errs = appendErr(errs, "conversion of %q: %w: quantity %q", c.Flow, ErrUnknownReference, c.Quantity)
			continue
		}
		if _, ok := b.cat.Flow(c.Flow); !ok {
			errs = appendErr(errs, "conversion: %w: flow %q", ErrUnknownReference, c.Flow)
			continue
		}
		b.cat.AddConversion(c.Flow, q, c.Value)
	}

	providers := make(map[string]struct{}, len(m.Processes))
	for _, p := range m.Processes {
		providers[p.Name] = struct{}{}
	}
	for _, p := range m.Processes {
		var exchanges []inventory.Exchange
		for _, x := range p.Exchanges {
			fl, ok := b.cat.Flow(x.Flow)
			if !ok {
				errs = appendErr(errs, "process %q exchange: %w: flow %q", p.Name, ErrUnknownReference, x.Flow)
				continue
			}
			dir, err := flow.ParseDirection(x.Direction)
			if err != nil {
				errs = appendErr(errs, "process %q exchange %q: %w", p.Name, x.Flow, err)
				continue
			}
			if x.Provider != "" {
				if _, ok := providers[x.Provider]; !ok {
					errs = appendErr(errs, "process %q exchange %q: %w: provider %q", p.Name, x.Flow, ErrUnknownReference, x.Provider)
					continue
				}
			}
			exchanges = append(exchanges, inventory.Exchange{
				Flow:        fl,
				Direction:   dir,
				Value:       x.Value,
				Termination: x.Provider,
				Reference:   x.Reference,
			})
		}
		proc := &inventory.Process{
			ID:              p.Name,
			Name:            p.Name,
			SpatialScope:    p.Location,
			Classifications: p.Classifications,
		}
		if err := b.cat.AddProcess(proc, exchanges); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return errs.ErrorOrNil()
}
