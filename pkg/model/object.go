package model

import (
	"sort"
	"sync"
)

// Object is a server-side reflective object: a stable id, an immutable
// class id, and an ordered set of interface items. Created on demand
// by a registry.Factory and destroyed when its reference count drops
// to zero and every session has released its handle.
type Object struct {
	mu sync.RWMutex

	id      string
	classID string
	order   []string
	items   map[string]InterfaceItem

	refCount int

	tableModel *TableModel
}

// NewObject creates an empty object with the given id and class id.
func NewObject(id, classID string) *Object {
	return &Object{
		id:      id,
		classID: classID,
		items:   make(map[string]InterfaceItem),
	}
}

// ID returns the object's stable identifier.
func (o *Object) ID() string { return o.id }

// ClassID returns the object's immutable class identifier.
func (o *Object) ClassID() string { return o.classID }

func (o *Object) add(item InterfaceItem) {
	o.mu.Lock()
	defer o.mu.Unlock()
	name := item.ItemName()
	if _, exists := o.items[name]; !exists {
		o.order = append(o.order, name)
	}
	o.items[name] = item
}

// AddProperty appends a property to the object's interface item list.
func (o *Object) AddProperty(p *Property) *Property {
	o.add(p)
	return p
}

// AddMethod appends a method to the object's interface item list.
func (o *Object) AddMethod(m *Method) *Method {
	o.add(m)
	return m
}

// AddEvent appends an event to the object's interface item list.
func (o *Object) AddEvent(e *Event) *Event {
	o.add(e)
	return e
}

// Property looks up a property by name.
func (o *Object) Property(name string) (*Property, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	item, ok := o.items[name]
	if !ok {
		return nil, false
	}
	p, ok := item.(*Property)
	return p, ok
}

// Method looks up a method by name.
func (o *Object) Method(name string) (*Method, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	item, ok := o.items[name]
	if !ok {
		return nil, false
	}
	m, ok := item.(*Method)
	return m, ok
}

// Event looks up an event by name.
func (o *Object) Event(name string) (*Event, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	item, ok := o.items[name]
	if !ok {
		return nil, false
	}
	e, ok := item.(*Event)
	return e, ok
}

// Items returns the interface items in the order they were added,
// the order the wire layer serializes a GetObject response in.
func (o *Object) Items() []InterfaceItem {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]InterfaceItem, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.items[name])
	}
	return out
}

// PropertyNames returns the names of every property on the object,
// sorted alphabetically. Items returns them in interface-item order.
func (o *Object) PropertyNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var out []string
	for _, name := range o.order {
		if _, ok := o.items[name].(*Property); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out) // stable for tests; wire order still comes from Items()
	return out
}

// Acquire increments the object's reference count, returning the new
// count. Called when a session leases a handle to the object.
func (o *Object) Acquire() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refCount++
	return o.refCount
}

// Release decrements the reference count, returning the new count.
// The caller destroys the object once this reaches zero.
func (o *Object) Release() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.refCount > 0 {
		o.refCount--
	}
	return o.refCount
}

// AttachTableModel associates a table-model projection with this
// object, e.g. a log object's scrollback or a roster's row list.
func (o *Object) AttachTableModel(tm *TableModel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tableModel = tm
}

// TableModel returns the object's attached table model, if any.
func (o *Object) TableModel() (*TableModel, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.tableModel, o.tableModel != nil
}

// RefCount returns the current reference count.
func (o *Object) RefCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.refCount
}
