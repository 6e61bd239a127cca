package rcon

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lepaul-HOU16/worldops/internal/domain"
)

// RCON packet types. Auth responses reuse the command type value.
const (
	packetTypeResponse     int32 = 0
	packetTypeCommand      int32 = 2
	packetTypeAuthResponse int32 = 2
	packetTypeAuth         int32 = 3
)

// Framing limits. The size field excludes its own 4 bytes; the minimum is
// id + type + two NUL terminators. Server payloads are capped at 4096 bytes.
const (
	packetHeaderSize = 10
	maxPacketSize    = 4096 + packetHeaderSize
)

// authRejectedID is the sentinel request id servers return for a bad
// password.
const authRejectedID int32 = -1

type packet struct {
	id   int32
	typ  int32
	body string
}

// writePacket frames and writes one packet.
func writePacket(w io.Writer, p packet) error {
	size := int32(packetHeaderSize + len(p.body))
	buf := make([]byte, 0, 4+size)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(size))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.id))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.typ))
	buf = append(buf, p.body...)
	buf = append(buf, 0, 0)
	_, err := w.Write(buf)
	return err
}

// readPacket reads and unframes one packet. A size field outside the
// protocol's limits means the stream is desynchronized and is surfaced as a
// protocol error.
func readPacket(r io.Reader) (packet, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return packet{}, err
	}
	size := int32(binary.LittleEndian.Uint32(sizeBuf[:]))
	if size < packetHeaderSize || size > maxPacketSize {
		return packet{}, fmt.Errorf("%w: packet size %d outside [%d, %d]",
			domain.ErrProtocol, size, packetHeaderSize, maxPacketSize)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return packet{}, err
	}
	p := packet{
		id:  int32(binary.LittleEndian.Uint32(body[0:4])),
		typ: int32(binary.LittleEndian.Uint32(body[4:8])),
	}
	payload := body[8:]
	if len(payload) < 2 || payload[len(payload)-1] != 0 || payload[len(payload)-2] != 0 {
		return packet{}, fmt.Errorf("%w: packet missing NUL terminators", domain.ErrProtocol)
	}
	p.body = string(payload[:len(payload)-2])
	return p, nil
}
