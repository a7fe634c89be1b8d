package ping

import (
	"context"
	"net/netip"
	"sync"
)

// MaxTargets is the upper bound of registered targets.
const MaxTargets = 10

// Registry holds the ordered list of probe targets. It only grows, until
// Reset is called.
type Registry struct {
	resolver Resolver
	targets  []*target
	mtx      sync.RWMutex
}

// NewRegistry creates an empty Registry using r for name resolution.
func NewRegistry(r Resolver) *Registry {
	return &Registry{resolver: r}
}

// Add resolves nameOrIP to an IPv4 address and appends it as a new target
// with zeroed statistics. It returns the target's index.
func (r *Registry) Add(ctx context.Context, nameOrIP string) (int, error) {
	if r.Len() >= MaxTargets {
		return -1, ErrRegistryFull
	}

	addr, err := resolveIPv4(ctx, r.resolver, nameOrIP)
	if err != nil {
		return -1, err
	}

	return r.insert(nameOrIP, addr)
}

// insert appends an already resolved target.
func (r *Registry) insert(hostname string, addr netip.Addr) (int, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if len(r.targets) >= MaxTargets {
		return -1, ErrRegistryFull
	}
	for _, t := range r.targets {
		if t.addr == addr {
			return -1, ErrDuplicateTarget
		}
	}

	index := len(r.targets)
	r.targets = append(r.targets, newTarget(index, hostname, addr))
	return index, nil
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.targets)
}

// List returns snapshots of all targets in insertion order.
func (r *Registry) List() []Target {
	targets := r.all()
	list := make([]Target, len(targets))
	for i, t := range targets {
		list[i] = t.snapshot()
	}
	return list
}

// Get returns a snapshot of the target at index.
func (r *Registry) Get(index int) (Target, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if index < 0 || index >= len(r.targets) {
		return Target{}, false
	}
	return r.targets[index].snapshot(), true
}

// Reset removes all targets.
func (r *Registry) Reset() {
	r.mtx.Lock()
	r.targets = nil
	r.mtx.Unlock()
}

// all returns a copy of the target list, suitable for a run.
func (r *Registry) all() []*target {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return append([]*target(nil), r.targets...)
}
