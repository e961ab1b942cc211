package mirror

import (
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

// ErrConnectionClosed is returned by Client methods once Close has
// been called or the connection has dropped.
var ErrConnectionClosed = errors.New("mirror: connection closed")

// Client is a session-protocol client connection: it owns the socket,
// correlates requests with their responses, parses GetObject /
// GetTableModel replies into mirrors, and dispatches unsolicited
// events into the mirrors they target.
type Client struct {
	conn net.Conn
	fw   *wire.Writer
	fr   *wire.Reader

	writeMu sync.Mutex

	mu          sync.Mutex
	nextReqID   uint16
	pending     map[uint16]chan wire.Frame
	objects     map[uint32]*MirrorObject
	tables      map[uint32]*MirrorTableModel
	closed      bool
	closeOnce   sync.Once

	log zerolog.Logger
}

// Dial connects to a session-protocol server at addr and starts the
// background read loop.
func Dial(addr string, log zerolog.Logger) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:    conn,
		fw:      wire.NewWriter(conn),
		fr:      wire.NewReader(conn),
		pending: make(map[uint16]chan wire.Frame),
		objects: make(map[uint32]*MirrorObject),
		tables:  make(map[uint32]*MirrorTableModel),
		log:     log,
	}
	go c.readLoop()
	return c, nil
}

// Close shuts down the connection and unblocks any in-flight request.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		for _, ch := range c.pending {
			close(ch)
		}
		c.pending = nil
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) nextRequestID() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextReqID++
	return c.nextReqID
}

// request sends a request frame and blocks for its matching response.
func (c *Client) request(cmd wire.Command, payload []byte) (wire.Frame, error) {
	id := c.nextRequestID()
	ch := make(chan wire.Frame, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return wire.Frame{}, ErrConnectionClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.fw.WriteFrame(wire.NewRequestFrame(cmd, id, payload))
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return wire.Frame{}, err
	}

	resp, ok := <-ch
	if !ok {
		return wire.Frame{}, ErrConnectionClosed
	}
	if resp.Header.Flags.IsError() {
		r, err := wire.NewBlockReader(resp.Payload)
		if err != nil {
			return wire.Frame{}, err
		}
		kind, err := r.ReadUint8()
		if err != nil {
			return wire.Frame{}, err
		}
		msg, _ := r.ReadString()
		return wire.Frame{}, wire.NewError(wire.ErrorKind(kind), "%s", msg)
	}
	return resp, nil
}

func (c *Client) readLoop() {
	for {
		f, err := c.fr.ReadFrame()
		if err != nil {
			c.Close()
			return
		}
		if f.Header.Flags.IsEvent() {
			c.dispatchEvent(f)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[f.Header.RequestID]
		if ok {
			delete(c.pending, f.Header.RequestID)
		}
		c.mu.Unlock()
		if ok {
			ch <- f
		}
	}
}

// Login authenticates with username and a pre-hashed password digest
// (see pkg/auth.HashPassword).
func (c *Client) Login(username string, digest [32]byte) error {
	w := wire.NewBlockWriter()
	w.WriteString(username)
	w.WriteBytes(digest[:])
	_, err := c.request(wire.CommandLogin, w.Bytes())
	return err
}

// NewSession starts an authenticated session and returns its server-
// assigned id.
func (c *Client) NewSession() ([16]byte, error) {
	resp, err := c.request(wire.CommandNewSession, nil)
	if err != nil {
		return [16]byte{}, err
	}
	r, err := wire.NewBlockReader(resp.Payload)
	if err != nil {
		return [16]byte{}, err
	}
	return r.ReadUUID()
}

// Ping round-trips a keep-alive request.
func (c *Client) Ping() error {
	_, err := c.request(wire.CommandPing, nil)
	return err
}

// GetObject requests objectID from the server and returns its client
// mirror.
func (c *Client) GetObject(objectID string) (*MirrorObject, error) {
	w := wire.NewBlockWriter()
	w.WriteString(objectID)
	resp, err := c.request(wire.CommandGetObject, w.Bytes())
	if err != nil {
		return nil, err
	}
	obj, err := parseObject(resp.Payload)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.objects[obj.Handle()] = obj
	c.mu.Unlock()
	return obj, nil
}

// ReleaseObject releases a handle previously obtained from GetObject.
func (c *Client) ReleaseObject(handle uint32) error {
	w := wire.NewBlockWriter()
	w.WriteUint32(handle)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	err := c.fw.WriteFrame(wire.NewEventFrame(wire.CommandReleaseObject, w.Bytes()))
	c.mu.Lock()
	delete(c.objects, handle)
	c.mu.Unlock()
	return err
}

// SetProperty requests the server set a property's value. Rejection
// is silent on the wire (per the session protocol), so a nil error
// here does not guarantee the write took effect.
func (c *Client) SetProperty(handle uint32, name string, typ wire.PropertyType, value any) error {
	w := wire.NewBlockWriter()
	w.WriteUint32(handle)
	w.WriteString(name)
	w.WriteUint8(uint8(typ))
	w.WritePropertyValue(typ, value)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.fw.WriteFrame(wire.NewEventFrame(wire.CommandObjectSetProperty, w.Bytes()))
}

// GetTableModel requests objectID's table model and returns its
// client mirror. requestRegion is invoked whenever SetViewport is
// called on the returned mirror.
func (c *Client) GetTableModel(objectID string, requestRegion RequestRegionFunc) (*MirrorTableModel, error) {
	w := wire.NewBlockWriter()
	w.WriteString(objectID)
	resp, err := c.request(wire.CommandGetTableModel, w.Bytes())
	if err != nil {
		return nil, err
	}
	r, err := wire.NewBlockReader(resp.Payload)
	if err != nil {
		return nil, err
	}
	handle, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	headers, err := readStringList(r)
	if err != nil {
		return nil, err
	}
	rowCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	tm := newMirrorTableModel(handle, headers, int(rowCount), func(h uint32, colMin, colMax, rowMin, rowMax int) {
		_ = c.sendTableModelSetRegion(h, colMin, colMax, rowMin, rowMax)
		if requestRegion != nil {
			requestRegion(h, colMin, colMax, rowMin, rowMax)
		}
	})

	c.mu.Lock()
	c.tables[handle] = tm
	c.mu.Unlock()
	return tm, nil
}

func (c *Client) sendTableModelSetRegion(handle uint32, colMin, colMax, rowMin, rowMax int) error {
	w := wire.NewBlockWriter()
	w.WriteUint32(handle)
	w.WriteInt32(int32(colMin))
	w.WriteInt32(int32(colMax))
	w.WriteInt32(int32(rowMin))
	w.WriteInt32(int32(rowMax))
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.fw.WriteFrame(wire.NewEventFrame(wire.CommandTableModelSetRegion, w.Bytes()))
}

func (c *Client) dispatchEvent(f wire.Frame) {
	r, err := wire.NewBlockReader(f.Payload)
	if err != nil {
		return
	}
	handle, err := r.ReadUint32()
	if err != nil {
		return
	}

	switch f.Header.Command {
	case wire.CommandObjectPropertyChanged:
		c.onPropertyChanged(handle, r)
	case wire.CommandObjectAttributeChanged:
		c.onAttributeChanged(handle, r)
	case wire.CommandTableModelColumnHeadersChanged:
		c.onColumnHeadersChanged(handle, r)
	case wire.CommandTableModelRowCountChanged:
		c.onRowCountChanged(handle, r)
	case wire.CommandTableModelUpdateRegion:
		c.onUpdateRegion(handle, r)
	}
}

func (c *Client) onPropertyChanged(handle uint32, r *wire.BlockReader) {
	c.mu.Lock()
	obj, ok := c.objects[handle]
	c.mu.Unlock()
	name, err := r.ReadString()
	if err != nil || !ok {
		return
	}
	typTag, err := r.ReadUint8()
	if err != nil {
		return
	}
	typ := wire.PropertyType(typTag)
	value, err := r.ReadPropertyValue(typ)
	if err != nil {
		return
	}
	if prop, ok := obj.Property(name); ok {
		prop.applyValue(value)
	}
}

func (c *Client) onAttributeChanged(handle uint32, r *wire.BlockReader) {
	c.mu.Lock()
	obj, ok := c.objects[handle]
	c.mu.Unlock()
	itemName, err := r.ReadString()
	if err != nil || !ok {
		return
	}
	attrName, err := r.ReadString()
	if err != nil {
		return
	}
	value, err := readAttrValue(r)
	if err != nil {
		return
	}
	if prop, ok := obj.Property(itemName); ok {
		prop.Attributes.Set(model.AttributeName(attrName), value)
	}
}

func (c *Client) onColumnHeadersChanged(handle uint32, r *wire.BlockReader) {
	c.mu.Lock()
	tm, ok := c.tables[handle]
	c.mu.Unlock()
	headers, err := readStringList(r)
	if err != nil || !ok {
		return
	}
	tm.applyColumnHeaders(headers)
}

func (c *Client) onRowCountChanged(handle uint32, r *wire.BlockReader) {
	c.mu.Lock()
	tm, ok := c.tables[handle]
	c.mu.Unlock()
	count, err := r.ReadUint32()
	if err != nil || !ok {
		return
	}
	tm.applyRowCount(int(count))
}

func (c *Client) onUpdateRegion(handle uint32, r *wire.BlockReader) {
	c.mu.Lock()
	tm, ok := c.tables[handle]
	c.mu.Unlock()
	if !ok {
		return
	}
	colMin, err := r.ReadInt32()
	if err != nil {
		return
	}
	colMax, err := r.ReadInt32()
	if err != nil {
		return
	}
	rowMin, err := r.ReadInt32()
	if err != nil {
		return
	}
	rowMax, err := r.ReadInt32()
	if err != nil {
		return
	}
	n, err := r.ReadUint32()
	if err != nil {
		return
	}
	cells := make(map[[2]int]string, n)
	for i := uint32(0); i < n; i++ {
		col, err := r.ReadInt32()
		if err != nil {
			return
		}
		row, err := r.ReadInt32()
		if err != nil {
			return
		}
		text, err := r.ReadString()
		if err != nil {
			return
		}
		cells[[2]int{int(col), int(row)}] = text
	}
	tm.applyUpdateRegion(int(colMin), int(colMax), int(rowMin), int(rowMax), cells)
}

func readStringList(r *wire.BlockReader) ([]string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
