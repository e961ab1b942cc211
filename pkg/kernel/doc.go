// Package kernel implements the generic hardware-protocol kernel
// skeleton: lifecycle (start/stop/config hot-swap), a dedicated
// single-threaded loop owning the IO handler and heartbeat timer, and
// the callback setters a protocol-specific kernel (e.g.
// pkg/kernel/traintasticdiy) builds on. All cross-thread communication
// with the main loop happens through PostToMain; the kernel never
// calls into domain code synchronously.
package kernel
