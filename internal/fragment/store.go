package fragment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/fragmentgo/internal/ctxlog"
	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// ChildLookup is how traversal finds fragments and their children.
type ChildLookup interface {
	// Get returns the fragment with the given ID.
	Get(id fragid.ID) (*Fragment, bool)
	// Children returns the fragments whose parent is id.
	Children(id fragid.ID) []*Fragment
}

// Store is a thread-safe arena of fragments keyed by ID.
type Store struct {
	mu       sync.RWMutex
	frags    map[fragid.ID]*Fragment
	children map[fragid.ID][]fragid.ID
	order    []fragid.ID

	inventory inventory.Provider
	factors   flow.FactorSource
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithInventory lets Terminate look up process exchanges.
func WithInventory(p inventory.Provider) StoreOption {
	return func(s *Store) { s.inventory = p }
}

// WithFactorSource supplies conversion factors that fragment flows lack.
func WithFactorSource(fs flow.FactorSource) StoreOption {
	return func(s *Store) { s.factors = fs }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		frags:    make(map[fragid.ID]*Fragment),
		children: make(map[fragid.ID][]fragid.ID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NodeOption configures a new fragment.
type NodeOption func(*nodeConfig)

type nodeConfig struct {
	id    fragid.ID
	stage string
}

// WithID fixes the fragment's ID instead of generating one.
func WithID(id fragid.ID) NodeOption {
	return func(c *nodeConfig) { c.id = id }
}

// WithStage sets the fragment's display stage.
func WithStage(stage string) NodeOption {
	return func(c *nodeConfig) { c.stage = stage }
}

// NewReference adds a root fragment.
func (s *Store) NewReference(name string, f *flow.Flow, dir flow.Direction, opts ...NodeOption) (*Fragment, error) {
	return s.add(fragid.Nil, false, name, f, dir, opts)
}

// NewBackground adds a background fragment. It has no parent and can never
// acquire one.
func (s *Store) NewBackground(name string, f *flow.Flow, dir flow.Direction, opts ...NodeOption) (*Fragment, error) {
	return s.add(fragid.Nil, true, name, f, dir, opts)
}

// NewChild adds a fragment under parent.
func (s *Store) NewChild(parent fragid.ID, name string, f *flow.Flow, dir flow.Direction, opts ...NodeOption) (*Fragment, error) {
	if parent.IsNil() {
		return nil, fmt.Errorf("%w: child %q needs a parent", ErrInvalidParentChild, name)
	}
	return s.add(parent, false, name, f, dir, opts)
}

func (s *Store) add(parent fragid.ID, background bool, name string, f *flow.Flow, dir flow.Direction, opts []NodeOption) (*Fragment, error) {
	if f == nil {
		return nil, fmt.Errorf("fragment %q: flow is required", name)
	}
	cfg := nodeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id.IsNil() {
		cfg.id = fragid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.frags[cfg.id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, cfg.id)
	}
	if !parent.IsNil() {
		p, ok := s.frags[parent]
		if !ok {
			return nil, fmt.Errorf("%w: parent %s of %q", ErrNotFound, parent, name)
		}
		if p.IsBackground() {
			return nil, fmt.Errorf("%w: background fragment %s cannot have children", ErrInvalidParentChild, p)
		}
	}

	frag := newFragment(cfg.id, name, f, dir, parent, background)
	frag.stage = cfg.stage
	s.frags[frag.ID] = frag
	s.order = append(s.order, frag.ID)
	if !parent.IsNil() {
		s.children[parent] = append(s.children[parent], frag.ID)
	}
	return frag, nil
}

// Get returns the fragment with the given ID.
func (s *Store) Get(id fragid.ID) (*Fragment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.frags[id]
	return f, ok
}

// Lookup is Get returning ErrNotFound for unknown IDs.
func (s *Store) Lookup(id fragid.ID) (*Fragment, error) {
	f, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return f, nil
}

// Children returns the fragments whose parent is id, in insertion order.
func (s *Store) Children(id fragid.ID) []*Fragment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.children[id]
	out := make([]*Fragment, 0, len(ids))
	for _, c := range ids {
		out = append(out, s.frags[c])
	}
	return out
}

// All returns every fragment in insertion order.
func (s *Store) All() []*Fragment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Fragment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.frags[id])
	}
	return out
}

// Roots returns the reference and background fragments in insertion order.
func (s *Store) Roots() []*Fragment {
	var out []*Fragment
	for _, f := range s.All() {
		if f.IsRoot() {
			out = append(out, f)
		}
	}
	return out
}

// FindByName returns the first fragment with the given name.
func (s *Store) FindByName(name string) (*Fragment, bool) {
	for _, f := range s.All() {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Top follows parent links from f up to its root.
func Top(l ChildLookup, f *Fragment) (*Fragment, error) {
	cur := f
	for {
		pid, ok := cur.Parent()
		if !ok {
			return cur, nil
		}
		p, found := l.Get(pid)
		if !found {
			return nil, fmt.Errorf("%w: parent %s of %s", ErrNotFound, pid, cur)
		}
		if p.ID == f.ID {
			return nil, fmt.Errorf("%w: parent chain of %s loops", ErrInvalidParentChild, f)
		}
		cur = p
	}
}

// Tree returns f and every descendant, depth first.
func Tree(l ChildLookup, f *Fragment) []*Fragment {
	out := []*Fragment{f}
	for _, c := range l.Children(f.ID) {
		out = append(out, Tree(l, c)...)
	}
	return out
}

// Scenarios is the union of the scenario keys known anywhere in the tree
// under id.
func (s *Store) Scenarios(id fragid.ID) ([]string, error) {
	root, err := s.Lookup(id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, f := range Tree(s, root) {
		for _, k := range f.Scenarios() {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// SetBalanceFlow makes the fragment the balance flow of its parent. The
// parent then conserves the reference quantity of the fragment's flow.
func (s *Store) SetBalanceFlow(id fragid.ID) error {
	child, err := s.Lookup(id)
	if err != nil {
		return err
	}
	if child.IsBalanceFlow() {
		return nil
	}
	pid, ok := child.Parent()
	if !ok {
		return fmt.Errorf("%w: reference fragment %s cannot be a balance flow", ErrInvalidParentChild, child)
	}
	parent, err := s.Lookup(pid)
	if err != nil {
		return err
	}
	if err := parent.setConserved(child.Flow.ReferenceQuantity); err != nil {
		return err
	}
	child.setBalance(true)
	return nil
}

// UnsetBalanceFlow reverses SetBalanceFlow.
func (s *Store) UnsetBalanceFlow(id fragid.ID) error {
	child, err := s.Lookup(id)
	if err != nil {
		return err
	}
	if !child.IsBalanceFlow() {
		return nil
	}
	if pid, ok := child.Parent(); ok {
		if parent, found := s.Get(pid); found {
			parent.clearConserved()
		}
	}
	child.setBalance(false)
	return nil
}

// Observe records an observed magnitude. Balance flows and children of
// subfragment-terminated nodes get their magnitudes from traversal and
// cannot be observed.
func (s *Store) Observe(id fragid.ID, v float64) error {
	f, err := s.Lookup(id)
	if err != nil {
		return err
	}
	if f.IsBalanceFlow() {
		return fmt.Errorf("%w: %s is a balance flow", ErrNotObservable, f)
	}
	if pid, ok := f.Parent(); ok {
		if p, found := s.Get(pid); found && p.DefaultTermination().Kind() == Subfragment {
			return fmt.Errorf("%w: parent of %s is a subfragment", ErrNotObservable, f)
		}
	}
	f.evs.setObserved(v)
	return nil
}

// Target says what a termination points at.
type Target struct {
	kind     Kind
	process  *inventory.Process
	fragment fragid.ID
}

// ToNull targets nothing: the fragment becomes a boundary flow.
func ToNull() Target { return Target{kind: Null} }

// ToProcess targets a modeled process.
func ToProcess(p *inventory.Process) Target { return Target{kind: Process, process: p} }

// ToFragment targets a fragment. Targeting the owner itself makes a
// foreground termination.
func ToFragment(id fragid.ID) Target { return Target{kind: Subfragment, fragment: id} }

// TermOption overrides a termination default.
type TermOption func(*termConfig)

type termConfig struct {
	termFlow  *flow.Flow
	direction *flow.Direction
	descend   *bool
	inboundEV *float64
}

// WithTermFlow sets the flow as understood at the target.
func WithTermFlow(f *flow.Flow) TermOption {
	return func(c *termConfig) { c.termFlow = f }
}

// WithDirection sets the direction at the target. The default is the
// complement of the fragment's direction.
func WithDirection(d flow.Direction) TermOption {
	return func(c *termConfig) { c.direction = &d }
}

// WithDescend chooses inline (true) or aggregated (false) subfragments.
func WithDescend(v bool) TermOption {
	return func(c *termConfig) { c.descend = &v }
}

// WithInboundEV sets the target's per-unit reference exchange value.
func WithInboundEV(v float64) TermOption {
	return func(c *termConfig) { c.inboundEV = &v }
}

// TerminateForeground terminates the fragment to itself.
func (s *Store) TerminateForeground(ctx context.Context, id fragid.ID, sc scenario.Spec, opts ...TermOption) (*Termination, error) {
	return s.Terminate(ctx, id, sc, ToFragment(id), opts...)
}

// Terminate builds a termination for the fragment under a single scenario,
// replacing whatever was there.
func (s *Store) Terminate(ctx context.Context, id fragid.ID, sc scenario.Spec, target Target, opts ...TermOption) (*Termination, error) {
	logger := ctxlog.FromContext(ctx)

	key, err := sc.Single()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScenarioConflict, err)
	}
	if key != "" {
		if err := scenario.ValidateName(key); err != nil {
			return nil, err
		}
	}
	frag, err := s.Lookup(id)
	if err != nil {
		return nil, err
	}

	cfg := termConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	t := newNullTermination(frag)
	if cfg.direction != nil {
		t.direction = *cfg.direction
	}
	if cfg.descend != nil {
		t.descend = *cfg.descend
	}

	stage := ""
	switch target.kind {
	case Null:
		// boundary flow; defaults already apply
	case Process:
		if target.process == nil {
			return nil, fmt.Errorf("terminate %s: process target is nil", frag)
		}
		t.kind = Process
		t.process = target.process
		if err := s.resolveProcessFlow(ctx, t, frag, cfg); err != nil {
			return nil, err
		}
		stage = target.process.Stage()
	default:
		tgt, err := s.Lookup(target.fragment)
		if err != nil {
			return nil, fmt.Errorf("terminate %s: %w", frag, err)
		}
		t.target = tgt.ID
		switch {
		case tgt.ID == frag.ID:
			t.kind = Foreground
			t.termFlow = frag.Flow
		case tgt.IsBackground():
			t.kind = Background
			t.termFlow = tgt.Flow
			stage = tgt.Name
		default:
			t.kind = Subfragment
			t.termFlow = tgt.Flow
			stage = tgt.Name
		}
		if cfg.termFlow != nil {
			t.termFlow = cfg.termFlow
		}
		if cfg.inboundEV != nil && t.kind != Foreground {
			t.inboundEV = *cfg.inboundEV
		}
	}

	if t.kind != Null {
		if t.inboundEV == 0 {
			return nil, fmt.Errorf("%w: %s has a zero inbound exchange value", ErrFlowConversion, frag)
		}
		if err := s.validateFlowConversion(ctx, frag, t); err != nil {
			return nil, err
		}
	}

	frag.setTermination(key, t)
	if key == "" && stage != "" && frag.Stage() == "" {
		frag.SetStage(stage)
	}
	logger.Debug("Fragment terminated.",
		"fragment", frag.ID.Short(), "scenario", sc.String(), "kind", t.kind.String(), "target", t.TargetID())
	return t, nil
}

// resolveProcessFlow picks the term flow, direction and inbound exchange
// value of a process termination from the process inventory. The inbound
// value is per unit of the process's reference exchange, so it is 1 when the
// term flow is itself the reference.
func (s *Store) resolveProcessFlow(ctx context.Context, t *Termination, frag *Fragment, cfg termConfig) error {
	t.termFlow = frag.Flow
	if cfg.termFlow != nil {
		t.termFlow = cfg.termFlow
	}
	if cfg.inboundEV != nil {
		t.inboundEV = *cfg.inboundEV
	}
	if s.inventory == nil {
		return nil
	}

	exchanges, err := s.inventory.Exchanges(ctx, t.process.ID)
	if err != nil {
		return fmt.Errorf("terminate %s to process %s: %w", frag, t.process.ID, err)
	}
	refs := inventory.References(exchanges)
	x, ok := inventory.Find(exchanges, t.termFlow, t.direction)
	if !ok {
		if len(refs) > 1 {
			ctxlog.FromContext(ctx).Warn("Process has several reference exchanges, using the first.",
				"process", t.process.ID, "fragment", frag.ID.Short())
		}
		if len(refs) == 0 {
			return nil
		}
		x, ok = refs[0], true
		t.termFlow = x.Flow
		t.direction = x.Direction
	}

	inbound := 1.0
	switch {
	case x.Reference:
		t.refFlow = x.Flow
	case len(refs) > 0 && refs[0].Value != 0:
		t.refFlow = refs[0].Flow
		inbound = x.Value / refs[0].Value
	default:
		inbound = x.Value
	}
	if cfg.inboundEV == nil && inbound != 0 {
		t.inboundEV = inbound
	}
	return nil
}

// validateFlowConversion makes sure the fragment's flow converts into the
// term flow, asking the factor source for a missing factor.
func (s *Store) validateFlowConversion(ctx context.Context, frag *Fragment, t *Termination) error {
	q := t.termFlow.ReferenceQuantity
	if frag.Flow.CF(q) != 0 {
		return nil
	}
	if s.factors != nil {
		if v, ok := s.factors.Factor(frag.Flow, q); ok && v != 0 {
			frag.Flow.SetCF(q, v)
			ctxlog.FromContext(ctx).Debug("Conversion factor supplied.",
				"flow", frag.Flow.Name, "quantity", q.String(), "value", v)
			return nil
		}
	}
	return fmt.Errorf("%w: provide a factor from %s [%s] to %s [%s]",
		ErrFlowConversion, frag.Flow, frag.Flow.Unit(), t.termFlow, t.termFlow.Unit())
}
