package wire

import "encoding/binary"

// HeaderSize is the fixed size of a frame header in bytes.
const HeaderSize = 8

// Header is the 8-byte frame preamble: command, flags, a 16-bit
// request id (zero for events), and the payload length.
type Header struct {
	Command   Command
	Flags     Flags
	RequestID uint16
	DataSize  uint32
}

// Encode writes the header in wire format (request id and data size
// little-endian).
func (h Header) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	buf[0] = byte(h.Command)
	buf[1] = byte(h.Flags)
	binary.LittleEndian.PutUint16(buf[2:4], h.RequestID)
	binary.LittleEndian.PutUint32(buf[4:8], h.DataSize)
	return buf
}

// DecodeHeader parses an 8-byte header. It fails only when buf is
// shorter than HeaderSize: any 8-byte pattern decodes to *some* Header,
// validity is judged by the caller (e.g. an unrecognized Command, or
// more than one kind bit set).
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, NewError(ErrorKindMalformedFrame, "header truncated: got %d bytes, want %d", len(buf), HeaderSize)
	}
	return Header{
		Command:   Command(buf[0]),
		Flags:     Flags(buf[1]),
		RequestID: binary.LittleEndian.Uint16(buf[2:4]),
		DataSize:  binary.LittleEndian.Uint32(buf[4:8]),
	}, nil
}

// kindBitCount returns how many of the three message-kind bits are set.
func (f Flags) kindBitCount() int {
	n := 0
	if f.IsRequest() {
		n++
	}
	if f.IsResponse() {
		n++
	}
	if f.IsEvent() {
		n++
	}
	return n
}

// Validate checks the header against the frame invariants: exactly
// one kind bit set, and the error bit only valid on responses.
func (h Header) Validate() error {
	if h.Flags.kindBitCount() != 1 {
		return NewError(ErrorKindMalformedFrame, "exactly one of request/response/event must be set, got flags=%#x", byte(h.Flags))
	}
	if h.Flags.IsError() && !h.Flags.IsResponse() {
		return NewError(ErrorKindMalformedFrame, "error bit set on non-response flags=%#x", byte(h.Flags))
	}
	if h.Flags.IsEvent() && h.RequestID != 0 {
		return NewError(ErrorKindMalformedFrame, "event frame must carry request_id 0, got %d", h.RequestID)
	}
	return nil
}
