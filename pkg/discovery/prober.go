package discovery

import (
	"context"
	"errors"
	"net"
	"time"
)

var errAlreadyListening = errors.New("discovery: responder already listening")

// Probe broadcasts a single magic datagram to addr (typically a
// subnet broadcast address on the discovery port) and collects replies
// until ctx is done. It is best-effort: no retransmission, and a
// server that never replies is simply absent from the result.
func Probe(ctx context.Context, addr string) ([]ServerInfo, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	// An unconnected socket, so replies from any server address are
	// received even when addr is a broadcast address.
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP(ProbeMagic[:], udpAddr); err != nil {
		return nil, err
	}

	var results []ServerInfo
	buf := make([]byte, 512)
	for {
		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(2 * time.Second)
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return results, err
		}

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || isTimeout(err) {
				return results, nil
			}
			return results, err
		}
		info, err := decodeServerInfo(buf[:n])
		if err != nil {
			continue
		}
		results = append(results, info)

		select {
		case <-ctx.Done():
			return results, nil
		default:
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
