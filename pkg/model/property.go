package model

import (
	"sync"

	"github.com/traintastic/traintastic-go/pkg/wire"
)

// PropertyFlags describes the read/write, persistence, and nesting
// characteristics of a property, per spec §3.
type PropertyFlags uint8

const (
	PropertyReadOnly PropertyFlags = 0
	PropertyWritable PropertyFlags = 1 << 0
	PropertyStore    PropertyFlags = 1 << 1
	PropertySubObj   PropertyFlags = 1 << 2
)

// CanWrite reports whether clients may set this property.
func (f PropertyFlags) CanWrite() bool { return f&PropertyWritable != 0 }

// ShouldStore reports whether the property participates in world-file
// persistence (pkg/worldfile).
func (f PropertyFlags) ShouldStore() bool { return f&PropertyStore != 0 }

// IsSubObject reports whether the property's value is itself an
// object id rather than a plain scalar.
func (f PropertyFlags) IsSubObject() bool { return f&PropertySubObj != 0 }

// ValueChangeFunc is invoked after a property's value actually
// changes (never on a no-op write, per the idempotence invariant).
type ValueChangeFunc func(name string, value any)

// Property is a named, typed, flagged slot with independently
// mutable metadata (its AttributeMap).
type Property struct {
	mu    sync.RWMutex
	name  string
	typ   wire.PropertyType
	flags PropertyFlags
	value any

	Attributes *AttributeMap

	onChange ValueChangeFunc
}

// NewProperty creates a property with the given initial value.
func NewProperty(name string, typ wire.PropertyType, flags PropertyFlags, initial any) *Property {
	return &Property{
		name:       name,
		typ:        typ,
		flags:      flags,
		value:      initial,
		Attributes: NewAttributeMap(name),
	}
}

// Name returns the property name.
func (p *Property) Name() string { return p.name }

// Type returns the property's wire value type.
func (p *Property) Type() wire.PropertyType { return p.typ }

// Flags returns the property's read/write/store/sub-object flags.
func (p *Property) Flags() PropertyFlags { return p.flags }

// Value returns the current value.
func (p *Property) Value() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// SetOnChange installs the callback fired when the value changes.
func (p *Property) SetOnChange(fn ValueChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// SetValue performs a client-originated write: rejected if the
// property is read-only or its Enabled attribute is false. Per the
// property write idempotence invariant, writing the current value is
// a no-op — no change callback fires.
func (p *Property) SetValue(value any) error {
	if !p.flags.CanWrite() {
		return wire.NewError(wire.ErrorKindInvalidHandle, "property %q is read-only", p.name)
	}
	if !p.Attributes.Enabled() {
		return wire.NewError(wire.ErrorKindInvalidHandle, "property %q is disabled", p.name)
	}
	return p.setValueInternal(value)
}

// SetValueInternal sets the value without checking writability or the
// Enabled attribute. Used by controllers and kernels reporting
// hardware-driven state back into the domain object.
func (p *Property) SetValueInternal(value any) error {
	return p.setValueInternal(value)
}

func (p *Property) setValueInternal(value any) error {
	p.mu.Lock()
	if p.value == value {
		p.mu.Unlock()
		return nil
	}
	p.value = value
	cb := p.onChange
	name := p.name
	p.mu.Unlock()

	if cb != nil {
		cb(name, value)
	}
	return nil
}
