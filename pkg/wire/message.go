package wire

// Frame is a decoded header plus its raw payload bytes. The payload
// is a sequence of blocks whose structure is command-specific; this
// package only guarantees the header/payload split and the generic
// block grammar, not per-command schemas (those live in pkg/session
// and pkg/mirror, which know the field order for each Command).
type Frame struct {
	Header  Header
	Payload []byte
}

// NewRequestFrame builds a request frame with the given request id.
func NewRequestFrame(cmd Command, requestID uint16, payload []byte) Frame {
	return Frame{
		Header: Header{
			Command:   cmd,
			Flags:     FlagRequest,
			RequestID: requestID,
			DataSize:  uint32(len(payload)),
		},
		Payload: payload,
	}
}

// NewResponseFrame builds a success response frame.
func NewResponseFrame(cmd Command, requestID uint16, payload []byte) Frame {
	return Frame{
		Header: Header{
			Command:   cmd,
			Flags:     FlagResponse,
			RequestID: requestID,
			DataSize:  uint32(len(payload)),
		},
		Payload: payload,
	}
}

// NewErrorResponseFrame builds an error response frame. Payload is
// typically a single block carrying an ErrorKind and message.
func NewErrorResponseFrame(cmd Command, requestID uint16, payload []byte) Frame {
	return Frame{
		Header: Header{
			Command:   cmd,
			Flags:     FlagResponse | FlagError,
			RequestID: requestID,
			DataSize:  uint32(len(payload)),
		},
		Payload: payload,
	}
}

// NewEventFrame builds an event frame (request_id is always 0).
func NewEventFrame(cmd Command, payload []byte) Frame {
	return Frame{
		Header: Header{
			Command:  cmd,
			Flags:    FlagEvent,
			DataSize: uint32(len(payload)),
		},
		Payload: payload,
	}
}
