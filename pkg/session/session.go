package session

import (
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/traintastic/traintastic-go/pkg/auth"
	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/registry"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

// tableSub tracks one session's independent window into a subscribed
// table model, plus the tokens needed to unhook on release.
type tableSub struct {
	tableModel   *model.TableModel
	region       model.Region
	hasRegion    bool
	columnToken  uint64
	rowCountToken uint64
}

// Session serves one client connection: it owns the connection's
// state machine, its leased handle table, and forwards property and
// table-model events from the registry back out over the wire.
type Session struct {
	writeMu sync.Mutex
	w       *wire.Writer

	stateMu sync.Mutex
	state   State
	id      uuid.UUID

	creds *auth.Store
	reg   *registry.Registry

	handles *HandleTable

	tablesMu sync.Mutex
	tables   map[uint32]*tableSub

	log zerolog.Logger
}

// New creates a session over conn, authenticating logins against
// creds and serving objects out of reg.
func New(conn io.Writer, creds *auth.Store, reg *registry.Registry, log zerolog.Logger) *Session {
	return &Session{
		w:       wire.NewWriter(conn),
		state:   StateConnecting,
		creds:   creds,
		reg:     reg,
		handles: NewHandleTable(),
		tables:  make(map[uint32]*tableSub),
		log:     log,
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *Session) setState(next State) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if !canTransition(s.state, next) {
		s.log.Warn().Stringer("from", s.state).Stringer("to", next).Msg("illegal session state transition")
		return
	}
	s.state = next
}

// send writes a frame out, serializing concurrent writers (the main
// loop delivering a broadcast event can race a direct response).
func (s *Session) send(f wire.Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.w.WriteFrame(f)
}

// Accept marks the transport as connected, entering AwaitingLogin.
// Called once, right after the TCP accept (server side).
func (s *Session) Accept() {
	s.setState(StateAwaitingLogin)
}

// Close transitions the session to Closing and revokes every
// outstanding handle and table subscription, releasing every object
// reference the session held.
func (s *Session) Close() {
	s.setState(StateClosing)
	s.handles.ReleaseAll()

	s.tablesMu.Lock()
	tables := s.tables
	s.tables = make(map[uint32]*tableSub)
	s.tablesMu.Unlock()
	for _, t := range tables {
		t.tableModel.UnsubscribeColumnHeaders(t.columnToken)
		t.tableModel.UnsubscribeRowCount(t.rowCountToken)
	}
}

// Dispatch routes an incoming frame to its command handler based on
// the session's current state, answering protocol violations with an
// error (ErrorKindInvalidHandle before a session is established,
// ErrorKindMalformedFrame for unsupported commands) rather than
// panicking.
func (s *Session) Dispatch(f wire.Frame) error {
	if err := f.Header.Validate(); err != nil {
		return err
	}

	state := s.State()

	switch f.Header.Command {
	case wire.CommandLogin:
		return s.handleLogin(f)
	case wire.CommandNewSession:
		return s.handleNewSession(f)
	case wire.CommandLogoff:
		s.setState(StateClosing)
		return nil
	case wire.CommandPing:
		return s.handlePing(f)
	}

	if state != StateInSession {
		return s.respondError(f, wire.ErrorKindInvalidHandle, "command %s requires an active session", f.Header.Command)
	}

	switch f.Header.Command {
	case wire.CommandGetObject:
		return s.handleGetObject(f)
	case wire.CommandReleaseObject:
		return s.handleReleaseObject(f)
	case wire.CommandObjectSetProperty:
		return s.handleObjectSetProperty(f)
	case wire.CommandGetTableModel:
		return s.handleGetTableModel(f)
	case wire.CommandTableModelSetRegion:
		return s.handleTableModelSetRegion(f)
	default:
		return s.respondError(f, wire.ErrorKindMalformedFrame, "unsupported command %s", f.Header.Command)
	}
}

func (s *Session) respondError(f wire.Frame, kind wire.ErrorKind, format string, args ...any) error {
	if !f.Header.Flags.IsRequest() {
		return nil // events carry no response channel
	}
	werr := wire.NewError(kind, format, args...)
	we := werr.(*wire.Error)
	w := wire.NewBlockWriter()
	w.WriteUint8(uint8(we.Kind))
	w.WriteString(we.Msg)
	return s.send(wire.NewErrorResponseFrame(f.Header.Command, f.Header.RequestID, w.Bytes()))
}

func (s *Session) handlePing(f wire.Frame) error {
	if !f.Header.Flags.IsRequest() {
		return nil
	}
	return s.send(wire.NewResponseFrame(wire.CommandPing, f.Header.RequestID, nil))
}

func (s *Session) handleLogin(f wire.Frame) error {
	r, err := wire.NewBlockReader(f.Payload)
	if err != nil {
		return err
	}
	username, err := r.ReadString()
	if err != nil {
		return err
	}
	digestBytes, err := r.ReadBytes()
	if err != nil {
		return err
	}
	var digest [auth.DigestSize]byte
	copy(digest[:], digestBytes)

	if s.State() != StateAwaitingLogin || !s.creds.Verify(username, digest) {
		return s.respondError(f, wire.ErrorKindAuthenticationFailed, "login failed for %q", username)
	}

	s.setState(StateAuthenticated)
	w := wire.NewBlockWriter()
	w.WriteBool(true)
	return s.send(wire.NewResponseFrame(wire.CommandLogin, f.Header.RequestID, w.Bytes()))
}

func (s *Session) handleNewSession(f wire.Frame) error {
	if s.State() != StateAuthenticated {
		return s.respondError(f, wire.ErrorKindNewSessionFailed, "NewSession requires a prior successful Login")
	}

	s.stateMu.Lock()
	s.id = uuid.New()
	id := s.id
	s.stateMu.Unlock()
	s.setState(StateInSession)

	w := wire.NewBlockWriter()
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return err
	}
	var raw [16]byte
	copy(raw[:], idBytes)
	w.WriteUUID(raw)
	return s.send(wire.NewResponseFrame(wire.CommandNewSession, f.Header.RequestID, w.Bytes()))
}
