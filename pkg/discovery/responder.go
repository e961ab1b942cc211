package discovery

import (
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Responder listens on a UDP port for probe datagrams and replies
// with the configured server name and TCP port. It is best-effort:
// malformed or unrecognized datagrams are dropped without logging at
// more than debug level, and a failed reply write never aborts the
// listen loop.
type Responder struct {
	mu   sync.Mutex
	conn *net.UDPConn
	wg   sync.WaitGroup

	serverName string
	tcpPort    uint16
	log        zerolog.Logger
}

// NewResponder creates a Responder that, once started, replies to
// every probe with serverName and tcpPort.
func NewResponder(serverName string, tcpPort uint16, log zerolog.Logger) *Responder {
	return &Responder{serverName: serverName, tcpPort: tcpPort, log: log}
}

// ListenAndServe binds addr (e.g. ":7245") and serves probes in a
// background goroutine until Close is called. Calling it twice on a
// running Responder is an error.
func (r *Responder) ListenAndServe(addr string) error {
	r.mu.Lock()
	if r.conn != nil {
		r.mu.Unlock()
		return errAlreadyListening
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.conn = conn
	r.mu.Unlock()

	r.wg.Add(1)
	go r.serve(conn)
	return nil
}

func (r *Responder) serve(conn *net.UDPConn) {
	defer r.wg.Done()
	buf := make([]byte, 64)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if !isProbe(buf[:n]) {
			r.log.Debug().Str("from", from.String()).Msg("discovery: dropped non-probe datagram")
			continue
		}

		r.mu.Lock()
		reply, encErr := encodeServerInfo(ServerInfo{Name: r.serverName, Port: r.tcpPort})
		r.mu.Unlock()
		if encErr != nil {
			r.log.Warn().Err(encErr).Msg("discovery: failed to encode reply")
			continue
		}
		if _, err := conn.WriteToUDP(reply, from); err != nil {
			r.log.Debug().Err(err).Str("to", from.String()).Msg("discovery: reply send failed")
		}
	}
}

// Close stops the listen loop and releases the socket.
func (r *Responder) Close() error {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	r.wg.Wait()
	return err
}
