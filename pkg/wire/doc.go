// Package wire implements the bit-exact frame and block codec used by
// the Traintastic session protocol between server and client.
//
// A frame is an 8-byte header followed by a payload of nested blocks.
// Encoding is infallible for well-formed in-memory messages; decoding
// reports a MalformedFrame error on truncation, oversize, or a type
// tag mismatch. The codec makes no attempt to be forward compatible
// across block layout changes — that is a concern for the session
// layer, not this package.
package wire
