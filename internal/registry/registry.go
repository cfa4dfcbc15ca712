package registry

import (
	"sort"
	"time"

	"github.com/MrSnakeDoc/castplay/internal/domain"
)

// Registry maps device names to addresses.
// It is built once at startup and never mutated, so it needs no locking.
type Registry struct {
	devices  map[string]domain.Device // Name -> Device
	names    []string                 // sorted
	loadedAt time.Time
}

// New builds a registry from already validated devices.
// Later entries with the same name replace earlier ones.
func New(devices []domain.Device) *Registry {
	r := &Registry{
		devices:  make(map[string]domain.Device, len(devices)),
		loadedAt: time.Now(),
	}
	for _, d := range devices {
		r.devices[d.Name] = d
	}

	r.names = make([]string, 0, len(r.devices))
	for name := range r.devices {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	return r
}

// Lookup retrieves a device by name
func (r *Registry) Lookup(name string) (domain.Device, bool) {
	d, ok := r.devices[name]
	return d, ok
}

// Names returns the registered device names in ascending order
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Devices returns all devices ordered by name
func (r *Registry) Devices() []domain.Device {
	out := make([]domain.Device, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.devices[name])
	}
	return out
}

// Count returns the number of registered devices
func (r *Registry) Count() int {
	return len(r.devices)
}

// LoadedAt returns when the registry was built
func (r *Registry) LoadedAt() time.Time {
	return r.loadedAt
}
