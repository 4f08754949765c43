package builder

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/specialistvlad/fragmentgo/internal/catalog"
	"github.com/specialistvlad/fragmentgo/internal/config"
	"github.com/specialistvlad/fragmentgo/internal/ctxlog"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
)

// Model is the result of a build.
type Model struct {
	Catalog *catalog.Catalog
	Store   *fragment.Store
}

// Build constructs and validates the catalog and fragment store described by
// the config model.
func Build(ctx context.Context, m *config.Model) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting model construction.")

	b := &build{
		cat:   catalog.New(),
		nodes: make(map[string]*fragment.Fragment),
		decls: make(map[string]*config.Fragment),
	}
	b.store = fragment.NewStore(fragment.WithInventory(b.cat), fragment.WithFactorSource(b.cat))

	if err := b.entities(m); err != nil {
		return nil, fmt.Errorf("invalid model entities: %w", err)
	}
	logger.Debug("Build: entities registered.",
		"quantities", len(m.Quantities), "flows", len(m.Flows), "processes", len(m.Processes))

	if err := b.fragments(ctx, m.Fragments); err != nil {
		return nil, fmt.Errorf("invalid fragments: %w", err)
	}
	logger.Debug("Build: fragments created.", "count", len(b.nodes))

	if err := b.terminations(ctx); err != nil {
		return nil, fmt.Errorf("invalid terminations: %w", err)
	}
	logger.Debug("Build: terminations resolved.")

	if err := DetectCycles(b.store); err != nil {
		return nil, err
	}
	logger.Debug("Build: cycle detection passed.")

	logger.Info("Model built.", "fragments", len(b.nodes), "references", len(b.store.Roots()))
	return &Model{Catalog: b.cat, Store: b.store}, nil
}

// build carries the state shared by the phases.
type build struct {
	cat   *catalog.Catalog
	store *fragment.Store
	// nodes and decls are keyed by fragment name.
	nodes map[string]*fragment.Fragment
	decls map[string]*config.Fragment
	order []string
}

// FragmentID is the stable ID of a named fragment.
func FragmentID(name string) fragid.ID {
	return fragid.FromName(name)
}

func appendErr(errs *multierror.Error, format string, args ...any) *multierror.Error {
	return multierror.Append(errs, fmt.Errorf(format, args...))
}
