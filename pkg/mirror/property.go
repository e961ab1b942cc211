package mirror

import (
	"sync"

	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

// ValueChangedFunc is fired whenever a MirrorProperty's value is
// updated by an incoming ObjectPropertyChanged event.
type ValueChangedFunc func(value any)

// AttributeChangedFunc is fired whenever one of a MirrorProperty's
// attributes is updated by an incoming ObjectAttributeChanged event.
type AttributeChangedFunc func(attr model.AttributeName, value any)

// MirrorProperty is the client-side shadow of one server property: a
// cached value plus an independently-updated attribute map, each with
// their own subscriber set.
type MirrorProperty struct {
	mu    sync.RWMutex
	name  string
	typ   wire.PropertyType
	value any

	Attributes *model.AttributeMap

	nextTok       uint64
	handlers      map[uint64]ValueChangedFunc
	nextAttrTok   uint64
	attrHandlers  map[uint64]AttributeChangedFunc
}

func newMirrorProperty(name string, typ wire.PropertyType, value any) *MirrorProperty {
	p := &MirrorProperty{
		name:         name,
		typ:          typ,
		value:        value,
		Attributes:   model.NewAttributeMap(name),
		handlers:     make(map[uint64]ValueChangedFunc),
		attrHandlers: make(map[uint64]AttributeChangedFunc),
	}
	p.Attributes.SetOnChange(func(_ string, attr model.AttributeName, value any) {
		p.mu.RLock()
		handlers := make([]AttributeChangedFunc, 0, len(p.attrHandlers))
		for _, fn := range p.attrHandlers {
			handlers = append(handlers, fn)
		}
		p.mu.RUnlock()
		for _, fn := range handlers {
			fn(attr, value)
		}
	})
	return p
}

// OnAttributeChanged registers fn to be called whenever the server
// reports a new attribute value, and returns a token for Disconnect.
func (p *MirrorProperty) OnAttributeChanged(fn AttributeChangedFunc) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	tok := p.nextAttrTok
	p.nextAttrTok++
	p.attrHandlers[tok] = fn
	return tok
}

// DisconnectAttribute removes a handler previously registered with
// OnAttributeChanged.
func (p *MirrorProperty) DisconnectAttribute(token uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attrHandlers, token)
}

// Name returns the property's name.
func (p *MirrorProperty) Name() string { return p.name }

// Type returns the property's wire value type.
func (p *MirrorProperty) Type() wire.PropertyType { return p.typ }

// Value returns the currently cached value.
func (p *MirrorProperty) Value() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// OnValueChanged registers fn to be called whenever the server reports
// a new value, and returns a token for Disconnect.
func (p *MirrorProperty) OnValueChanged(fn ValueChangedFunc) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	tok := p.nextTok
	p.nextTok++
	p.handlers[tok] = fn
	return tok
}

// Disconnect removes a handler previously registered with
// OnValueChanged.
func (p *MirrorProperty) Disconnect(token uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.handlers, token)
}

// applyValue updates the cached value and notifies subscribers.
func (p *MirrorProperty) applyValue(value any) {
	p.mu.Lock()
	p.value = value
	handlers := make([]ValueChangedFunc, 0, len(p.handlers))
	for _, fn := range p.handlers {
		handlers = append(handlers, fn)
	}
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(value)
	}
}
