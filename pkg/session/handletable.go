package session

import (
	"sync"

	"github.com/traintastic/traintastic-go/pkg/wire"
)

// handleEntry binds a session-local handle to the global object id it
// was leased against, plus any subscriptions owned by that lease
// (e.g. an active table-model region) so Release can tear them down.
type handleEntry struct {
	objectID string
	onClose  func()
}

// HandleTable allocates and tracks the opaque, monotonically
// increasing handles a session hands out to its client. Handles are
// never reused even after revocation, so a stale handle a client
// references after ReleaseObject reliably fails lookup rather than
// aliasing a new object.
type HandleTable struct {
	mu      sync.Mutex
	next    uint32
	entries map[uint32]handleEntry
}

// NewHandleTable creates an empty handle table.
func NewHandleTable() *HandleTable {
	return &HandleTable{entries: make(map[uint32]handleEntry)}
}

// Lease allocates a fresh handle bound to objectID. onClose, if
// non-nil, runs exactly once when the handle is released.
func (t *HandleTable) Lease(objectID string, onClose func()) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	h := t.next
	t.entries[h] = handleEntry{objectID: objectID, onClose: onClose}
	return h
}

// SetOnClose replaces the close callback for an already-leased
// handle. Used when the callback itself needs to know the handle
// value, which is not known until Lease returns.
func (t *HandleTable) SetOnClose(handle uint32, onClose func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[handle]
	if !ok {
		return
	}
	e.onClose = onClose
	t.entries[handle] = e
}

// Resolve returns the object id bound to a handle.
func (t *HandleTable) Resolve(handle uint32) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[handle]
	if !ok {
		return "", wire.NewError(wire.ErrorKindInvalidHandle, "handle %d is not live", handle)
	}
	return e.objectID, nil
}

// Release revokes a handle and runs its onClose callback. Releasing
// an already-revoked or unknown handle is a no-op, matching the spec's
// "ReleaseObject is an event, not a request" semantics — a client
// cannot be told it raced itself.
func (t *HandleTable) Release(handle uint32) {
	t.mu.Lock()
	e, ok := t.entries[handle]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.entries, handle)
	t.mu.Unlock()

	if e.onClose != nil {
		e.onClose()
	}
}

// ReleaseAll revokes every outstanding handle, used when a session
// transitions to Closing.
func (t *HandleTable) ReleaseAll() {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[uint32]handleEntry)
	t.mu.Unlock()

	for _, e := range entries {
		if e.onClose != nil {
			e.onClose()
		}
	}
}

// Len returns the number of live handles.
func (t *HandleTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
