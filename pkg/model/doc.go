// Package model implements the server-side reflective object model:
// objects identified by a stable object id, carrying an ordered list
// of interface items (properties, methods, events, sub-objects), each
// property backed by a runtime-mutable attribute map.
//
// This replaces class-based RTTI with a registry of schemas: a
// property's name, type and flags are fixed at construction, but its
// attributes (Enabled, Visible, DisplayName, Min, Max, ...) may change
// at runtime and are pushed to clients independently of value changes.
package model
