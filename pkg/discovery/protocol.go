package discovery

import (
	"encoding/binary"
	"fmt"
)

// ProbeMagic is the fixed 8-byte datagram a client sends to solicit a
// reply. Anything else received on the discovery port is ignored.
var ProbeMagic = [8]byte{'T', 'R', 'A', 'I', 'N', 'D', 'S', 'C'}

// ProbeTTL is the client-side multicast/broadcast TTL recommended for
// the outbound probe, per the external interface contract.
const ProbeTTL = 3

// ServerInfo is the reply payload: a length-prefixed UTF-8 server name
// followed by the TCP port the session protocol listens on.
type ServerInfo struct {
	Name string
	Port uint16
}

func isProbe(data []byte) bool {
	if len(data) != len(ProbeMagic) {
		return false
	}
	for i, b := range ProbeMagic {
		if data[i] != b {
			return false
		}
	}
	return true
}

func encodeServerInfo(info ServerInfo) ([]byte, error) {
	if len(info.Name) > 255 {
		return nil, fmt.Errorf("discovery: server name too long (%d bytes)", len(info.Name))
	}
	out := make([]byte, 1+len(info.Name)+2)
	out[0] = byte(len(info.Name))
	copy(out[1:], info.Name)
	binary.BigEndian.PutUint16(out[1+len(info.Name):], info.Port)
	return out, nil
}

func decodeServerInfo(data []byte) (ServerInfo, error) {
	if len(data) < 1 {
		return ServerInfo{}, fmt.Errorf("discovery: reply too short")
	}
	nameLen := int(data[0])
	want := 1 + nameLen + 2
	if len(data) != want {
		return ServerInfo{}, fmt.Errorf("discovery: reply length %d, want %d", len(data), want)
	}
	name := string(data[1 : 1+nameLen])
	port := binary.BigEndian.Uint16(data[1+nameLen:])
	return ServerInfo{Name: name, Port: port}, nil
}
