package wire

import (
	"bytes"
	"io"
)

// Encode serializes a frame to its exact wire bytes: header followed
// by payload. Encoding a well-formed Frame (DataSize already matching
// len(Payload)) never fails.
func Encode(f Frame) []byte {
	header := f.Header
	header.DataSize = uint32(len(f.Payload))
	hdr := header.Encode()
	out := make([]byte, 0, HeaderSize+len(f.Payload))
	out = append(out, hdr[:]...)
	out = append(out, f.Payload...)
	return out
}

// Decode parses a complete frame from buf. It fails with
// ErrorKindMalformedFrame if buf is shorter than the header, the
// header is invalid, or the payload is truncated or has trailing
// bytes beyond DataSize.
func Decode(buf []byte) (Frame, error) {
	header, err := DecodeHeader(buf)
	if err != nil {
		return Frame{}, err
	}
	if err := header.Validate(); err != nil {
		return Frame{}, err
	}
	rest := buf[HeaderSize:]
	if uint64(len(rest)) < uint64(header.DataSize) {
		return Frame{}, NewError(ErrorKindMalformedFrame, "payload truncated: got %d bytes, want %d", len(rest), header.DataSize)
	}
	if uint64(len(rest)) > uint64(header.DataSize) {
		return Frame{}, NewError(ErrorKindMalformedFrame, "payload has %d trailing bytes beyond data_size", len(rest)-int(header.DataSize))
	}
	payload := make([]byte, header.DataSize)
	copy(payload, rest)
	return Frame{Header: header, Payload: payload}, nil
}

// Equal reports whether two frames carry identical header fields and
// payload bytes.
func Equal(a, b Frame) bool {
	return a.Header == b.Header && bytes.Equal(a.Payload, b.Payload)
}

// Reader reads length-delimited frames from a stream. Unlike a plain
// length-prefixed framer, the frame's own header carries the payload
// length (DataSize), so there is no separate outer length prefix.
type Reader struct {
	r              io.Reader
	maxPayloadSize uint32
}

// DefaultMaxPayloadSize bounds a single frame's payload (1 MiB),
// guarding against a corrupt or hostile data_size field.
const DefaultMaxPayloadSize = 1 << 20

// NewReader creates a frame reader with the default maximum payload size.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, maxPayloadSize: DefaultMaxPayloadSize}
}

// NewReaderWithMaxPayload creates a frame reader with a custom maximum
// payload size.
func NewReaderWithMaxPayload(r io.Reader, maxPayloadSize uint32) *Reader {
	return &Reader{r: r, maxPayloadSize: maxPayloadSize}
}

// ReadFrame reads one complete frame, blocking until the header and
// payload have arrived or an error (including io.EOF on a clean
// close) occurs.
func (fr *Reader) ReadFrame() (Frame, error) {
	var hdrBuf [HeaderSize]byte
	if _, err := io.ReadFull(fr.r, hdrBuf[:]); err != nil {
		return Frame{}, err
	}
	header, err := DecodeHeader(hdrBuf[:])
	if err != nil {
		return Frame{}, err
	}
	if err := header.Validate(); err != nil {
		return Frame{}, err
	}
	if header.DataSize > fr.maxPayloadSize {
		return Frame{}, NewError(ErrorKindMalformedFrame, "data_size %d exceeds maximum %d", header.DataSize, fr.maxPayloadSize)
	}
	payload := make([]byte, header.DataSize)
	if header.DataSize > 0 {
		if _, err := io.ReadFull(fr.r, payload); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Header: header, Payload: payload}, nil
}

// Writer writes frames to a stream.
type Writer struct {
	w io.Writer
}

// NewWriter creates a frame writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame writes one complete frame.
func (fw *Writer) WriteFrame(f Frame) error {
	_, err := fw.w.Write(Encode(f))
	return err
}
