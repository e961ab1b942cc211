package session

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/traintastic/traintastic-go/pkg/auth"
	"github.com/traintastic/traintastic-go/pkg/logging"
	"github.com/traintastic/traintastic-go/pkg/registry"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// Address to listen on, e.g. ":5690".
	Address string

	// Credentials authenticates incoming Login requests.
	Credentials *auth.Store

	// Registry serves GetObject/GetTableModel lookups.
	Registry *registry.Registry

	// Logger receives structured protocol events. Defaults to a no-op
	// logger if nil.
	Logger logging.Logger

	// Log is the operational zerolog.Logger passed to each Session.
	Log zerolog.Logger

	// OnConnect/OnDisconnect notify of a session's lifecycle, mirroring
	// teacher transport.ServerConfig's connection hooks.
	OnConnect    func(conn *Conn)
	OnDisconnect func(conn *Conn)
}

// Server accepts client TCP connections and serves each over its own
// Session, the same shape as teacher transport.Server minus TLS: one
// accept loop goroutine, one read loop goroutine per connection.
type Server struct {
	config   ServerConfig
	listener net.Listener

	connsMu sync.RWMutex
	conns   map[*Conn]struct{}

	running atomic.Bool
	wg      sync.WaitGroup
}

// Conn couples a Session to the net.Conn and id it was accepted on.
type Conn struct {
	conn    net.Conn
	session *Session
	connID  string
}

// RemoteAddr returns the client's address.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// ConnID returns the connection's logging identifier.
func (c *Conn) ConnID() string { return c.connID }

// Session returns the Conn's underlying protocol session.
func (c *Conn) Session() *Session { return c.session }

// NewServer creates a server that will listen on config.Address.
func NewServer(config ServerConfig) *Server {
	if config.Logger == nil {
		config.Logger = logging.NoopLogger{}
	}
	return &Server{
		config: config,
		conns:  make(map[*Conn]struct{}),
	}
}

// Start opens the listener and begins accepting connections in the
// background. It returns once the listener is bound.
func (s *Server) Start() error {
	if s.running.Load() {
		return fmt.Errorf("session: server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("session: listen: %w", err)
	}
	s.listener = listener
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and every active connection, then waits
// for their goroutines to exit.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)

	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for c := range s.conns {
		c.conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the server's bound listen address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ConnectionCount reports the number of currently connected clients.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.config.Logger.Log(logging.Event{
					Layer:    logging.LayerTransport,
					Category: logging.CategoryError,
					Error:    &logging.ErrorEventData{Layer: logging.LayerTransport, Message: err.Error()},
				})
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	connID := conn.RemoteAddr().String()
	sess := New(conn, s.config.Credentials, s.config.Registry, s.config.Log)
	c := &Conn{conn: conn, session: sess, connID: connID}

	s.connsMu.Lock()
	s.conns[c] = struct{}{}
	s.connsMu.Unlock()

	s.config.Logger.Log(logging.Event{
		ConnectionID: connID,
		Layer:        logging.LayerTransport,
		Category:     logging.CategoryState,
		RemoteAddr:   connID,
		StateChange:  &logging.StateChangeEvent{Entity: logging.StateEntityConnection, NewState: "CONNECTED"},
	})

	if s.config.OnConnect != nil {
		s.config.OnConnect(c)
	}

	sess.Accept()
	s.readLoop(conn, sess, connID)

	sess.Close()

	s.connsMu.Lock()
	delete(s.conns, c)
	s.connsMu.Unlock()

	s.config.Logger.Log(logging.Event{
		ConnectionID: connID,
		Layer:        logging.LayerTransport,
		Category:     logging.CategoryState,
		RemoteAddr:   connID,
		StateChange:  &logging.StateChangeEvent{Entity: logging.StateEntityConnection, OldState: "CONNECTED", NewState: "DISCONNECTED"},
	})

	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(c)
	}
}

// readLoop reads and dispatches frames until the connection closes or
// a frame fails to decode, at which point the connection is dropped.
func (s *Server) readLoop(conn net.Conn, sess *Session, connID string) {
	r := wire.NewReader(conn)
	for {
		f, err := r.ReadFrame()
		if err != nil {
			return
		}

		s.config.Logger.Log(logging.Event{
			ConnectionID: connID,
			Direction:    logging.DirectionIn,
			Layer:        logging.LayerWire,
			Category:     logging.CategoryMessage,
			Message:      &logging.MessageEvent{Command: f.Header.Command, Flags: f.Header.Flags, RequestID: f.Header.RequestID},
		})

		if err := sess.Dispatch(f); err != nil {
			s.config.Logger.Log(logging.Event{
				ConnectionID: connID,
				Layer:        logging.LayerWire,
				Category:     logging.CategoryError,
				Error:        &logging.ErrorEventData{Layer: logging.LayerWire, Message: err.Error()},
			})
			return
		}
	}
}
