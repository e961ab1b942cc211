package mirror

import (
	"sync"

	"github.com/traintastic/traintastic-go/pkg/wire"
)

// Item kind tags, matching the server's session package encoding.
const (
	itemKindProperty uint8 = iota
	itemKindMethod
	itemKindEvent
)

// MirrorObject is the client-side shadow of one server object,
// populated by parsing a GetObject response's nested item blocks.
type MirrorObject struct {
	mu       sync.RWMutex
	handle   uint32
	classID  string
	order    []string
	methods  map[string]struct{}
	events   map[string]struct{}
	properties map[string]*MirrorProperty
}

// Handle returns the client-local handle this mirror is keyed by.
func (o *MirrorObject) Handle() uint32 { return o.handle }

// ClassID returns the server-reported class identifier.
func (o *MirrorObject) ClassID() string { return o.classID }

// Property looks up a mirrored property by name.
func (o *MirrorObject) Property(name string) (*MirrorProperty, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.properties[name]
	return p, ok
}

// HasMethod reports whether the object exposes a method by that name.
func (o *MirrorObject) HasMethod(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.methods[name]
	return ok
}

// HasEvent reports whether the object exposes an event by that name.
func (o *MirrorObject) HasEvent(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.events[name]
	return ok
}

// PropertyNames returns property names in the order the server sent
// them.
func (o *MirrorObject) PropertyNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, 0, len(o.properties))
	for _, name := range o.order {
		if _, ok := o.properties[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// parseObject decodes a GetObject response payload into a MirrorObject.
func parseObject(payload []byte) (*MirrorObject, error) {
	r, err := wire.NewBlockReader(payload)
	if err != nil {
		return nil, err
	}
	handle, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	classID, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	obj := &MirrorObject{
		handle:     handle,
		classID:    classID,
		methods:    make(map[string]struct{}),
		events:     make(map[string]struct{}),
		properties: make(map[string]*MirrorProperty),
	}

	for i := uint32(0); i < count; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		obj.order = append(obj.order, name)

		switch kind {
		case itemKindProperty:
			typTag, err := r.ReadUint8()
			if err != nil {
				return nil, err
			}
			typ := wire.PropertyType(typTag)
			value, err := r.ReadPropertyValue(typ)
			if err != nil {
				return nil, err
			}
			prop := newMirrorProperty(name, typ, value)
			if err := readAttributesInto(r, prop.Attributes); err != nil {
				return nil, err
			}
			obj.properties[name] = prop
		case itemKindMethod:
			obj.methods[name] = struct{}{}
		case itemKindEvent:
			obj.events[name] = struct{}{}
		}
	}

	return obj, nil
}
