package pkgmgr

import (
	"sort"
	"sync"
)

// Registry maps package-management families to drivers.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry creates a registry holding drivers.
func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{drivers: make(map[string]Driver)}
	for _, d := range drivers {
		r.Register(d)
	}
	return r
}

// DefaultRegistry returns a registry with the dnf, yum and apt drivers.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Driver{
			Family:  "dnf",
			Install: []string{"dnf", "-y", "install"},
			Remove:  []string{"dnf", "-y", "remove"},
			Parser:  RPMParser{},
		},
		Driver{
			Family:  "yum",
			Install: []string{"yum", "-y", "install"},
			Remove:  []string{"yum", "-y", "remove"},
			Parser:  RPMParser{},
		},
		Driver{
			Family:  "apt",
			Install: []string{"env", "DEBIAN_FRONTEND=noninteractive", "apt-get", "-y", "install"},
			Remove:  []string{"env", "DEBIAN_FRONTEND=noninteractive", "apt-get", "-y", "remove"},
			Parser:  APTParser{},
		},
	)
}

// Register adds or replaces the driver for d.Family.
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[d.Family] = d
}

// Lookup returns the driver for family.
func (r *Registry) Lookup(family string) (Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[family]
	return d, ok
}

// Families returns the supported families in sorted order.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.drivers))
	for family := range r.drivers {
		out = append(out, family)
	}
	sort.Strings(out)
	return out
}
