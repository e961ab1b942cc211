// Package registry implements the global object store: a factory that
// constructs objects by class id, and a registry that owns every live
// object keyed by its object id, reference-counted across sessions.
package registry

import (
	"sync"

	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

// Constructor builds a new object for a given object id. Registered
// per class id in a Factory.
type Constructor func(objectID string) (*model.Object, error)

// Factory maps class ids to object constructors.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register associates a class id with a constructor. Re-registering a
// class id replaces the previous constructor.
func (f *Factory) Register(classID string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[classID] = ctor
}

// Build constructs a new object of the given class, failing with
// ErrorKindUnknownClass if no constructor is registered.
func (f *Factory) Build(classID, objectID string) (*model.Object, error) {
	f.mu.RLock()
	ctor, ok := f.constructors[classID]
	f.mu.RUnlock()
	if !ok {
		return nil, wire.NewError(wire.ErrorKindUnknownClass, "unknown class %q", classID)
	}
	return ctor(objectID)
}

// entry pairs a live object with a destroy callback run once its
// reference count reaches zero, plus the broadcaster that fans its
// property and attribute changes out to every subscribed session.
type entry struct {
	obj         *model.Object
	onClose     func()
	broadcaster *Broadcaster
}

// Registry is the single global object_id -> Object store. It is owned
// by the main/world thread: all mutation happens on that goroutine, so
// its mutex guards against concurrent reads from other goroutines
// (e.g. a table-model snapshot builder), not against cross-thread
// writes.
type Registry struct {
	mu      sync.RWMutex
	factory *Factory
	objects map[string]*entry
}

// NewRegistry creates a registry backed by the given factory.
func NewRegistry(factory *Factory) *Registry {
	return &Registry{factory: factory, objects: make(map[string]*entry)}
}

// Get returns the live object for objectID, constructing it via the
// factory on first access. onClose, if non-nil, is recorded the first
// time the object is created and invoked when the last reference is
// released; subsequent Get calls for an already-live object ignore
// onClose.
func (r *Registry) Get(classID, objectID string, onClose func()) (*model.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.objects[objectID]; ok {
		return e.obj, nil
	}

	obj, err := r.factory.Build(classID, objectID)
	if err != nil {
		return nil, err
	}
	bc := newBroadcaster()
	wireBroadcaster(objectID, obj, bc)
	r.objects[objectID] = &entry{obj: obj, onClose: onClose, broadcaster: bc}
	return obj, nil
}

// Lookup returns an already-live object without constructing it.
func (r *Registry) Lookup(objectID string) (*model.Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.objects[objectID]
	if !ok {
		return nil, false
	}
	return e.obj, true
}

// LookupOrErr is Lookup but fails with ErrorKindUnknownObject instead
// of returning a bool, for use at session command-handling sites.
func (r *Registry) LookupOrErr(objectID string) (*model.Object, error) {
	obj, ok := r.Lookup(objectID)
	if !ok {
		return nil, wire.NewError(wire.ErrorKindUnknownObject, "unknown object %q", objectID)
	}
	return obj, nil
}

// Broadcaster returns the object's change broadcaster, if it is live.
func (r *Registry) Broadcaster(objectID string) (*Broadcaster, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.objects[objectID]
	if !ok {
		return nil, false
	}
	return e.broadcaster, true
}

// Acquire increments an object's reference count on behalf of a newly
// leased session handle.
func (r *Registry) Acquire(objectID string) {
	r.mu.RLock()
	e, ok := r.objects[objectID]
	r.mu.RUnlock()
	if ok {
		e.obj.Acquire()
	}
}

// Release decrements an object's reference count. Once it drops to
// zero the object is removed from the registry and its onClose
// callback, if any, runs — implementing "destroyed when reference
// count drops to zero and all sessions have released its handle."
func (r *Registry) Release(objectID string) {
	r.mu.Lock()
	e, ok := r.objects[objectID]
	if !ok {
		r.mu.Unlock()
		return
	}
	remaining := e.obj.Release()
	if remaining > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.objects, objectID)
	r.mu.Unlock()

	if e.onClose != nil {
		e.onClose()
	}
}

// Len returns the number of currently live objects, mainly for tests.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}
