package world

import (
	"sync"

	"github.com/hupe1980/worldloop/pddl"
)

// HandleKey is the attachment key of the perception handle of an instance.
const HandleKey = "handle"

// Data attaches arbitrary values to world instances, such as the perception
// handle behind a tracked human. Safe for concurrent use.
type Data struct {
	mu     sync.RWMutex
	values map[string]map[string]any // instance key -> key -> value
}

// NewData creates an empty store.
func NewData() *Data {
	return &Data{values: make(map[string]map[string]any)}
}

// Get returns the value stored for inst under key.
func (d *Data) Get(inst pddl.Instance, key string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.values[inst.Key()][key]
	return v, ok
}

// Set stores value for inst under key.
func (d *Data) Set(inst pddl.Instance, key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.values[inst.Key()]
	if !ok {
		m = make(map[string]any)
		d.values[inst.Key()] = m
	}
	m[key] = value
}

// Remove deletes one value and returns it.
func (d *Data) Remove(inst pddl.Instance, key string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.values[inst.Key()]
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	delete(m, key)
	if len(m) == 0 {
		delete(d.values, inst.Key())
	}
	return v, ok
}

// RemoveAll drops every value attached to inst.
func (d *Data) RemoveAll(inst pddl.Instance) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.values, inst.Key())
}

// Snapshot returns a shallow copy of the values attached to inst.
func (d *Data) Snapshot(inst pddl.Instance) map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]any, len(d.values[inst.Key()]))
	for k, v := range d.values[inst.Key()] {
		out[k] = v
	}
	return out
}

// GetAs is a typed accessor over Data.Get.
func GetAs[T any](d *Data, inst pddl.Instance, key string) (T, bool) {
	v, ok := d.Get(inst, key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
