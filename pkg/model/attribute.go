package model

import (
	"reflect"
	"sync"
)

// AttributeName identifies a piece of interface-item metadata that may
// change at runtime independent of the item's value.
type AttributeName string

// Well-known attribute names, mirroring the reference client's
// property editor widgets.
const (
	AttrEnabled       AttributeName = "enabled"
	AttrVisible       AttributeName = "visible"
	AttrDisplayName   AttributeName = "display_name"
	AttrMin           AttributeName = "min"
	AttrMax           AttributeName = "max"
	AttrAllowedValues AttributeName = "allowed_values"
)

// AttributeChangeFunc is invoked whenever SetAttribute actually
// changes a value. It is called with the item name that owns the
// attribute map, so a single handler can serve a whole object.
type AttributeChangeFunc func(itemName string, attr AttributeName, value any)

// AttributeMap holds an interface item's runtime metadata. The zero
// value is usable; defaults (Enabled=true, Visible=true) are applied
// by NewAttributeMap.
type AttributeMap struct {
	mu       sync.RWMutex
	values   map[AttributeName]any
	onChange AttributeChangeFunc
	owner    string
}

// NewAttributeMap creates an attribute map defaulted to Enabled=true,
// Visible=true, owned by the named interface item.
func NewAttributeMap(owner string) *AttributeMap {
	return &AttributeMap{
		owner: owner,
		values: map[AttributeName]any{
			AttrEnabled: true,
			AttrVisible: true,
		},
	}
}

// SetOnChange installs the callback invoked on attribute changes.
// Typically wired to the owning Object's event broadcast.
func (a *AttributeMap) SetOnChange(fn AttributeChangeFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// Get returns the attribute's current value and whether it is set.
func (a *AttributeMap) Get(name AttributeName) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.values[name]
	return v, ok
}

// Enabled is a convenience accessor for the Enabled attribute,
// defaulting to true if unset.
func (a *AttributeMap) Enabled() bool {
	v, ok := a.Get(AttrEnabled)
	if !ok {
		return true
	}
	b, _ := v.(bool)
	return b
}

// Set updates an attribute. Per the invariant that attribute changes
// and value changes produce independent events, this never touches
// the item's value and fires onChange only when the value actually
// changed.
func (a *AttributeMap) Set(name AttributeName, value any) {
	a.mu.Lock()
	if existing, ok := a.values[name]; ok && reflect.DeepEqual(existing, value) {
		a.mu.Unlock()
		return
	}
	if a.values == nil {
		a.values = make(map[AttributeName]any)
	}
	a.values[name] = value
	cb := a.onChange
	owner := a.owner
	a.mu.Unlock()

	if cb != nil {
		cb(owner, name, value)
	}
}

// Snapshot returns a copy of all currently-set attributes.
func (a *AttributeMap) Snapshot() map[AttributeName]any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[AttributeName]any, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}
