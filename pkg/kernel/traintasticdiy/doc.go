// Package traintasticdiy implements the TraintasticDIY hardware
// protocol kernel: a binary framed message format over TCP or serial,
// layered on top of pkg/kernel's generic lifecycle and heartbeat
// machinery. It is the exemplar concrete kernel other protocol
// kernels are modeled on.
package traintasticdiy
