// Package worldfile defines the on-disk world file contract:
// WorldReader/WorldSaver interfaces plus a default .ctw codec, an
// xz-compressed tar archive of JSON documents. It implements enough
// of the format to round trip a minimal world so the object registry
// has something concrete to persist against; it does not implement
// the full domain-object serialization a real world file carries
// (board geometry, Lua scripts, decoder roster, and so on are out of
// scope here).
package worldfile
