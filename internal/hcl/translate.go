// This file translates the decoded HCL blocks into the format-agnostic
// config model.

package hcl

import (
	"context"
	"fmt"

	"github.com/specialistvlad/fragmentgo/internal/config"
	"github.com/specialistvlad/fragmentgo/internal/ctxlog"
)

func (l *Loader) translate(ctx context.Context, root *fileRoot) (*config.Model, error) {
	m := &config.Model{}
	for _, q := range root.Quantities {
		m.Quantities = append(m.Quantities, &config.Quantity{Name: q.Name, Unit: q.Unit, Method: q.Method})
	}
	for _, f := range root.Flows {
		m.Flows = append(m.Flows, translateFlow(f))
	}
	for _, c := range root.Conversions {
		m.Conversions = append(m.Conversions, &config.Conversion{Flow: c.Flow, Quantity: c.Quantity, Value: c.Value})
	}
	for _, p := range root.Processes {
		m.Processes = append(m.Processes, translateProcess(p))
	}
	for _, f := range root.Fragments {
		frag, err := l.translateFragment(ctx, f)
		if err != nil {
			return nil, err
		}
		m.Fragments = append(m.Fragments, frag)
	}
	return m, nil
}

func translateFlow(f *flowBlock) *config.Flow {
	out := &config.Flow{
		Name:        f.Name,
		Quantity:    f.Quantity,
		Elementary:  f.Elementary,
		Compartment: f.Compartment,
	}
	for _, cf := range f.Factors {
		out.Factors = append(out.Factors, &config.Factor{Quantity: cf.Quantity, Value: cf.Value, Location: cf.Location})
	}
	return out
}

func translateProcess(p *processBlock) *config.Process {
	out := &config.Process{
		Name:            p.Name,
		Location:        p.Location,
		Classifications: p.Classifications,
	}
	for _, x := range p.Exchanges {
		out.Exchanges = append(out.Exchanges, &config.Exchange{
			Flow:      x.Flow,
			Direction: x.Direction,
			Value:     x.Value,
			Reference: x.Reference,
			Provider:  x.Provider,
		})
	}
	return out
}

// translateFragment converts a fragment block and its nested children.
func (l *Loader) translateFragment(ctx context.Context, f *fragmentBlock) (*config.Fragment, error) {
	logger := ctxlog.FromContext(ctx).With("fragment", f.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	out := &config.Fragment{
		Name:          f.Name,
		Flow:          f.Flow,
		Direction:     f.Direction,
		Background:    f.Background,
		Balance:       f.Balance,
		Stage:         f.Stage,
		ExchangeValue: f.ExchangeValue,
		Observed:      f.Observed,
	}

	if isExprDefined(ctx, f.ExchangeValues, "exchange_values") {
		evs, err := decodeNumberMap(ctx, f.ExchangeValues)
		if err != nil {
			return nil, fmt.Errorf("fragment %q exchange_values: %w", f.Name, err)
		}
		out.Scenarios = evs
	}

	for _, t := range f.Terminations {
		out.Terminations = append(out.Terminations, &config.Termination{
			Scenario:   t.Scenario,
			Process:    t.Process,
			Fragment:   t.Fragment,
			Self:       t.Self,
			TermFlow:   t.TermFlow,
			Direction:  t.Direction,
			Descend:    t.Descend,
			InboundEV:  t.InboundEV,
			ChildFlows: t.ChildFlows,
		})
	}

	for _, c := range f.Children {
		child, err := l.translateFragment(ctx, c)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	logger.Debug("Translated fragment.", "children", len(out.Children), "terminations", len(out.Terminations))
	return out, nil
}
