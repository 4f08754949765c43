package fragment

import (
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// ExchangeValues holds a fragment's magnitudes: the cached default (slot
// "0"), the observed value (slot "1") and one value per named scenario.
//
// Reads take a shared lock. Writes, including the balance values that
// traversal memoizes, take the exclusive lock.
type ExchangeValues struct {
	mu        sync.RWMutex
	cached    float64
	cachedSet bool
	observed  float64
	scenarios map[string]float64
}

func newExchangeValues() *ExchangeValues {
	return &ExchangeValues{cached: 1, scenarios: make(map[string]float64)}
}

// Cached is the default magnitude. It is 1 until set.
func (e *ExchangeValues) Cached() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cached
}

// Observed is the observed magnitude. 0 means not yet observed.
func (e *ExchangeValues) Observed() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.observed
}

// SetCached assigns the default magnitude. It may only be done once until
// ResetCached is called.
func (e *ExchangeValues) SetCached(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cachedSet {
		return fmt.Errorf("%w: have %g, refusing %g", ErrCacheAlreadySet, e.cached, v)
	}
	e.cached = v
	e.cachedSet = true
	return nil
}

// ResetCached restores the default magnitude to 1 and allows it to be set
// again.
func (e *ExchangeValues) ResetCached() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cached = 1
	e.cachedSet = false
}

func (e *ExchangeValues) setObserved(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observed = v
}

func (e *ExchangeValues) set(key string, v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenarios[key] = v
}

// Has reports whether a scenario key carries an explicit value.
func (e *ExchangeValues) Has(key string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.scenarios[key]
	return ok
}

// Scenario returns the explicit value stored under key.
func (e *ExchangeValues) Scenario(key string) (float64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.scenarios[key]
	return v, ok
}

// Keys lists the scenario keys in sorted order. The cached and observed
// slots are not included.
func (e *ExchangeValues) Keys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.scenarios))
	for k := range e.scenarios {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns every stored value, with the cached and observed values
// under the reserved slot names.
func (e *ExchangeValues) Snapshot() map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]float64, len(e.scenarios)+2)
	out[scenario.CachedSlot] = e.cached
	out[scenario.ObservedSlot] = e.observed
	for k, v := range e.scenarios {
		out[k] = v
	}
	return out
}

// Scale multiplies every stored value by factor.
func (e *ExchangeValues) Scale(factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cached *= factor
	e.observed *= factor
	for k, v := range e.scenarios {
		e.scenarios[k] = v * factor
	}
}

// Clear drops every scenario value and restores the slot defaults.
func (e *ExchangeValues) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cached, e.cachedSet, e.observed = 1, false, 0
	e.scenarios = make(map[string]float64)
}

// CacheBalance memoizes a magnitude computed during traversal: in the
// observed slot when no scenario is in effect, otherwise under the full
// scenario key.
func (e *ExchangeValues) CacheBalance(s scenario.Spec, v float64) {
	if s.IsNone() {
		e.setObserved(v)
		return
	}
	e.set(s.Key(), v)
}

// resolve implements exchange value resolution. An explicit scenario value
// wins; otherwise balance flows and observed requests read the observed
// slot and everything else reads the cached one. A root whose value comes
// out 0 falls back to the cached value.
func (e *ExchangeValues) resolve(s scenario.Spec, observed, balance, root bool) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	key, ok, err := s.Match(func(k string) bool {
		_, has := e.scenarios[k]
		return has
	})
	if err != nil {
		return 0, err
	}

	var ev float64
	switch {
	case ok:
		ev = e.scenarios[key]
	case observed || balance:
		ev = e.observed
	default:
		ev = e.cached
	}
	if ev == 0 && root {
		ev = e.cached
	}
	return ev, nil
}
