// Package session implements the server-side session state machine and
// per-session handle table. A Session moves through
// Connecting -> AwaitingLogin -> Authenticated -> InSession -> Closing,
// dispatches incoming frames to the registry and object model, and
// fans property/attribute/table-model change events back out to the
// one client it serves.
package session
