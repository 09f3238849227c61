// Package frame implements the byte-level framing used on the CC1352
// sniffer's UART link: start/end sentinels, a one-byte checksum, and the
// command/response opcodes defined by the board's firmware.
package frame

import (
	"encoding/binary"
	"io"
)

var (
	sof = [2]byte{0x40, 0x53}
	eof = [2]byte{0x40, 0x45}
)

// CommandKind is the packet_info byte of an outbound command frame.
type CommandKind byte

const (
	Ping         CommandKind = 0x40
	Start        CommandKind = 0x41
	Stop         CommandKind = 0x42
	CfgFrequency CommandKind = 0x45
	CfgPHY       CommandKind = 0x47
)

// ResponseKind classifies an inbound frame's packet_info byte.
type ResponseKind byte

const (
	// There is no constant for a command response: the exact echo byte is
	// board/firmware specific, so callers compare against Data and Error
	// explicitly and otherwise treat packet_info as a command echo.
	Data  ResponseKind = 0xC0
	Error ResponseKind = 0xC1
)

// Frame is a decoded on-wire unit, with the SOF/EOF sentinels and length
// prefix stripped — only the fields a caller needs.
type Frame struct {
	PacketInfo byte
	Data       []byte
}

// FCS computes the frame check sequence over packet_info, the little-endian
// packet length, and the payload bytes, per spec.md §4.1.
func FCS(packetInfo byte, payload []byte) byte {
	length := uint16(len(payload))
	sum := uint32(packetInfo) + uint32(length&0xFF) + uint32(length>>8)
	for _, b := range payload {
		sum += uint32(b)
	}
	return byte(sum & 0xFF)
}

// Encode builds a complete outbound command frame for kind with the given
// payload (which may be empty).
func Encode(kind CommandKind, payload []byte) []byte {
	out := make([]byte, 0, 2+1+2+len(payload)+1+2)
	out = append(out, sof[:]...)
	out = append(out, byte(kind))
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(payload)))
	out = append(out, lenBuf[:]...)
	out = append(out, payload...)
	out = append(out, FCS(byte(kind), payload))
	out = append(out, eof[:]...)
	return out
}

// Decode reads one frame from r, byte by byte, until the two-byte EOF
// sentinel is observed. It does not resynchronize on bad magic; callers
// that need to recover from a corrupted stream must discard bytes up to
// the next SOF themselves.
func Decode(r io.Reader) (Frame, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, &FrameError{Kind: Truncated, Err: err}
	}
	if hdr[0] != sof[0] || hdr[1] != sof[1] {
		return Frame{}, &FrameError{Kind: BadMagic}
	}
	packetInfo := hdr[2]
	length := binary.LittleEndian.Uint16(hdr[3:5])

	buf := make([]byte, 0, int(length)+2)
	one := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, one); err != nil {
			return Frame{}, &FrameError{Kind: Truncated, Err: err}
		}
		buf = append(buf, one[0])
		if n := len(buf); n >= 2 && buf[n-2] == eof[0] && buf[n-1] == eof[1] {
			break
		}
	}

	payload := buf[:len(buf)-2]
	if len(payload) < int(length) {
		return Frame{}, &FrameError{Kind: LengthMismatch}
	}
	fcs := payload[len(payload)-1]
	data := payload[:len(payload)-1]
	if len(data) != int(length) {
		return Frame{}, &FrameError{Kind: LengthMismatch}
	}
	if FCS(packetInfo, data) != fcs {
		return Frame{}, &FrameError{Kind: BadFcs}
	}

	out := make([]byte, len(data))
	copy(out, data)
	return Frame{PacketInfo: packetInfo, Data: out}, nil
}
