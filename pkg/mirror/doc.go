// Package mirror implements the client-side shadow of a server
// object: GetObject responses are parsed into a MirrorObject keyed by
// handle, and subsequent ObjectPropertyChanged/ObjectAttributeChanged
// events update it and fire value_changed/attribute_changed signals.
// A MirrorTableModel additionally supports scrollable UIs, requesting
// a new server-side region whenever the visible viewport changes and
// discarding cells that fall outside it.
package mirror
