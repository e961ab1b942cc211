// Package eventloop implements the cooperative single-threaded main
// loop that owns the world: objects, sessions, and registry mutation
// all happen on it. Other goroutines (kernel threads, transport
// accept loops) never touch domain state directly; they hand a
// zero-argument task to Loop.Post and the main loop runs it between
// its own iterations. This is the only supported form of cross-domain
// communication, matching the "no mutex exposed to domain code"
// design note.
package eventloop
