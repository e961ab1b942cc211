package registry

import (
	"sync"

	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

// PropertyChange describes a property whose value actually changed.
type PropertyChange struct {
	ObjectID string
	Name     string
	Type     wire.PropertyType
	Value    any
}

// AttributeChange describes an interface item whose attribute
// actually changed.
type AttributeChange struct {
	ObjectID string
	ItemName string
	Attr     model.AttributeName
	Value    any
}

// Broadcaster fans an object's property and attribute changes out to
// every session that currently holds a handle to it, mirroring the
// teacher's SubscriptionManager: independent subscriber id spaces,
// mutex-protected maps, no global dispatcher.
type Broadcaster struct {
	mu sync.RWMutex

	nextID        uint64
	propertySubs  map[uint64]func(PropertyChange)
	attributeSubs map[uint64]func(AttributeChange)
}

func newBroadcaster() *Broadcaster {
	return &Broadcaster{
		propertySubs:  make(map[uint64]func(PropertyChange)),
		attributeSubs: make(map[uint64]func(AttributeChange)),
	}
}

// SubscribeProperty registers a handler for property changes and
// returns a token for UnsubscribeProperty.
func (b *Broadcaster) SubscribeProperty(fn func(PropertyChange)) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	tok := b.nextID
	b.propertySubs[tok] = fn
	return tok
}

// UnsubscribeProperty removes a previously registered handler.
func (b *Broadcaster) UnsubscribeProperty(token uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.propertySubs, token)
}

// SubscribeAttribute registers a handler for attribute changes and
// returns a token for UnsubscribeAttribute.
func (b *Broadcaster) SubscribeAttribute(fn func(AttributeChange)) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	tok := b.nextID
	b.attributeSubs[tok] = fn
	return tok
}

// UnsubscribeAttribute removes a previously registered handler.
func (b *Broadcaster) UnsubscribeAttribute(token uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.attributeSubs, token)
}

func (b *Broadcaster) emitProperty(change PropertyChange) {
	b.mu.RLock()
	subs := make([]func(PropertyChange), 0, len(b.propertySubs))
	for _, fn := range b.propertySubs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(change)
	}
}

func (b *Broadcaster) emitAttribute(change AttributeChange) {
	b.mu.RLock()
	subs := make([]func(AttributeChange), 0, len(b.attributeSubs))
	for _, fn := range b.attributeSubs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(change)
	}
}

// wireBroadcaster hooks every current property's value and attribute
// callbacks into bc. It is called once, at object construction time,
// before the object is handed to any session.
func wireBroadcaster(objectID string, obj *model.Object, bc *Broadcaster) {
	for _, item := range obj.Items() {
		p, ok := item.(*model.Property)
		if !ok {
			continue
		}
		name := p.Name()
		typ := p.Type()
		p.SetOnChange(func(_ string, value any) {
			bc.emitProperty(PropertyChange{ObjectID: objectID, Name: name, Type: typ, Value: value})
		})
		p.Attributes.SetOnChange(func(itemName string, attr model.AttributeName, value any) {
			bc.emitAttribute(AttributeChange{ObjectID: objectID, ItemName: itemName, Attr: attr, Value: value})
		})
	}
}
