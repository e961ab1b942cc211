// Package discovery implements the server-side UDP discovery
// responder and the client-side prober: a single best-effort
// request/reply exchange, not mDNS/DNS-SD. A client broadcasts an
// 8-byte magic probe to the discovery port; any listening server
// replies directly to the sender with its name and TCP port.
package discovery
