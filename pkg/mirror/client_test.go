package mirror

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traintastic/traintastic-go/pkg/wire"
)

// fakeServer accepts one connection and hands the caller raw frame
// reader/writer access, standing in for pkg/session in these tests.
type fakeServer struct {
	ln   net.Listener
	fr   *wire.Reader
	fw   *wire.Writer
	conn net.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return &fakeServer{ln: ln}
}

func (s *fakeServer) accept(t *testing.T) {
	t.Helper()
	conn, err := s.ln.Accept()
	require.NoError(t, err)
	s.conn = conn
	s.fr = wire.NewReader(conn)
	s.fw = wire.NewWriter(conn)
}

func (s *fakeServer) recv(t *testing.T) wire.Frame {
	t.Helper()
	f, err := s.fr.ReadFrame()
	require.NoError(t, err)
	return f
}

func newObjectPayload(handle uint32, classID string) *wire.BlockWriter {
	w := wire.NewBlockWriter()
	w.WriteUint32(handle)
	w.WriteString(classID)
	return w
}

func TestClientGetObjectParsesMirror(t *testing.T) {
	fs := newFakeServer(t)
	defer fs.ln.Close()

	go fs.accept(t)
	c, err := Dial(fs.ln.Addr().String(), zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	time.Sleep(20 * time.Millisecond)

	// GetObject blocks until the fake server answers, so it runs on its
	// own goroutine while the server side reads the request.
	type getResult struct {
		obj *MirrorObject
		err error
	}
	result := make(chan getResult, 1)
	go func() {
		obj, err := c.GetObject("clock1")
		result <- getResult{obj, err}
	}()

	req := fs.recv(t)
	assert.Equal(t, wire.CommandGetObject, req.Header.Command)

	w := newObjectPayload(7, "clock")
	w.WriteUint32(1) // item count
	w.WriteString("hour")
	w.WriteUint8(itemKindProperty)
	w.WriteUint8(uint8(wire.PropertyTypeInteger))
	w.WritePropertyValue(wire.PropertyTypeInteger, int64(14))
	w.WriteUint32(0) // attribute count
	require.NoError(t, fs.fw.WriteFrame(wire.NewResponseFrame(wire.CommandGetObject, req.Header.RequestID, w.Bytes())))

	res := <-result
	obj, err := res.obj, res.err
	require.NoError(t, err)
	assert.Equal(t, uint32(7), obj.Handle())
	assert.Equal(t, "clock", obj.ClassID())

	prop, ok := obj.Property("hour")
	require.True(t, ok)
	assert.Equal(t, int64(14), prop.Value())
}

func TestClientPropertyChangedEventUpdatesMirror(t *testing.T) {
	fs := newFakeServer(t)
	defer fs.ln.Close()

	go fs.accept(t)
	c, err := Dial(fs.ln.Addr().String(), zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	time.Sleep(20 * time.Millisecond)

	type getResult struct {
		obj *MirrorObject
		err error
	}
	result := make(chan getResult, 1)
	go func() {
		obj, err := c.GetObject("clock1")
		result <- getResult{obj, err}
	}()
	req := fs.recv(t)

	w := newObjectPayload(3, "clock")
	w.WriteUint32(1)
	w.WriteString("hour")
	w.WriteUint8(itemKindProperty)
	w.WriteUint8(uint8(wire.PropertyTypeInteger))
	w.WritePropertyValue(wire.PropertyTypeInteger, int64(1))
	w.WriteUint32(0)
	require.NoError(t, fs.fw.WriteFrame(wire.NewResponseFrame(wire.CommandGetObject, req.Header.RequestID, w.Bytes())))

	res := <-result
	obj, err := res.obj, res.err
	require.NoError(t, err)
	prop, _ := obj.Property("hour")

	var got any
	done := make(chan struct{})
	prop.OnValueChanged(func(value any) {
		got = value
		close(done)
	})

	ew := wire.NewBlockWriter()
	ew.WriteUint32(3)
	ew.WriteString("hour")
	ew.WriteUint8(uint8(wire.PropertyTypeInteger))
	ew.WritePropertyValue(wire.PropertyTypeInteger, int64(2))
	require.NoError(t, fs.fw.WriteFrame(wire.NewEventFrame(wire.CommandObjectPropertyChanged, ew.Bytes())))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("value_changed did not fire")
	}
	assert.Equal(t, int64(2), got)
	assert.Equal(t, int64(2), prop.Value())
}

func TestClientTableModelViewportRequestsRegionAndAppliesCells(t *testing.T) {
	fs := newFakeServer(t)
	defer fs.ln.Close()

	go fs.accept(t)
	c, err := Dial(fs.ln.Addr().String(), zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	time.Sleep(20 * time.Millisecond)

	type getResult struct {
		tm  *MirrorTableModel
		err error
	}
	result := make(chan getResult, 1)
	go func() {
		tm, err := c.GetTableModel("decoders", nil)
		result <- getResult{tm, err}
	}()
	req := fs.recv(t)
	assert.Equal(t, wire.CommandGetTableModel, req.Header.Command)

	w := wire.NewBlockWriter()
	w.WriteUint32(9)
	w.WriteUint32(2)
	w.WriteString("name")
	w.WriteString("address")
	w.WriteUint32(100)
	require.NoError(t, fs.fw.WriteFrame(wire.NewResponseFrame(wire.CommandGetTableModel, req.Header.RequestID, w.Bytes())))

	res := <-result
	tm, err := res.tm, res.err
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "address"}, tm.ColumnHeaders())
	assert.Equal(t, 100, tm.RowCount())

	tm.SetViewport(0, 1, 0, 1)

	setRegion := fs.recv(t)
	assert.Equal(t, wire.CommandTableModelSetRegion, setRegion.Header.Command)

	uw := wire.NewBlockWriter()
	uw.WriteUint32(9)
	uw.WriteInt32(0)
	uw.WriteInt32(1)
	uw.WriteInt32(0)
	uw.WriteInt32(1)
	uw.WriteUint32(1)
	uw.WriteInt32(0)
	uw.WriteInt32(0)
	uw.WriteString("DCC 3")
	require.NoError(t, fs.fw.WriteFrame(wire.NewEventFrame(wire.CommandTableModelUpdateRegion, uw.Bytes())))

	require.Eventually(t, func() bool {
		text, ok := tm.CellText(0, 0)
		return ok && text == "DCC 3"
	}, time.Second, 5*time.Millisecond)

	tm.SetViewport(5, 6, 5, 6)
	_, ok := tm.CellText(0, 0)
	assert.False(t, ok, "cell outside the new viewport must be discarded")
}
