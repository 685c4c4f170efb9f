package zone

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Registry hands out *ZoneData by name so that distinct goroutines can
// each own a different zone's mutation path without contending on a
// shared lock.
type Registry struct {
	zones cmap.ConcurrentMap[string, *ZoneData]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{zones: cmap.New[*ZoneData]()}
}

// Load returns the zone named name, creating and storing an empty one on
// first use.
func (r *Registry) Load(name string) *ZoneData {
	name = Canon(name)
	if z, ok := r.zones.Get(name); ok {
		return z
	}
	z := NewZoneData(name)
	r.zones.SetIfAbsent(name, z)
	loaded, _ := r.zones.Get(name)
	return loaded
}

// Get returns the zone named name without creating it.
func (r *Registry) Get(name string) (*ZoneData, bool) {
	return r.zones.Get(Canon(name))
}

// Set installs z under its own Name, overwriting any prior entry.
func (r *Registry) Set(z *ZoneData) {
	r.zones.Set(z.Name, z)
}

// Remove drops the zone named name from the registry.
func (r *Registry) Remove(name string) {
	r.zones.Remove(Canon(name))
}

// Names returns every zone name currently registered, in no particular
// order.
func (r *Registry) Names() []string {
	return r.zones.Keys()
}

// Count returns the number of zones currently registered.
func (r *Registry) Count() int {
	return r.zones.Count()
}
