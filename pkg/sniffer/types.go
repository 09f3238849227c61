package sniffer

import "strconv"

// State is a ControllerFSM lifecycle state (spec.md §4.3).
type State int

const (
	WaitingForCommand State = iota
	Init
	Stopped
	Started
)

func (s State) String() string {
	switch s {
	case WaitingForCommand:
		return "WAITING_FOR_COMMAND"
	case Init:
		return "INIT"
	case Stopped:
		return "STOPPED"
	case Started:
		return "STARTED"
	default:
		return "UNKNOWN"
	}
}

// BoardInfo is the decoded payload of a successful PING response.
type BoardInfo struct {
	Status     byte
	ChipID     uint16
	ChipRev    byte
	FWID       byte
	FWRevMajor byte
	FWRevMinor byte
}

// Config is the board configuration snapshot attached to every captured
// packet: the serial interface number, PHY index, frequency, and the
// caller-supplied informational channel number.
type Config struct {
	Interface uint16
	PHY       byte
	Frequency [4]byte
	Channel   uint16
}

// FrequencyFromMHz encodes a real-valued MHz frequency into the board's
// 4-byte little-endian [whole_lo, whole_hi, frac_lo, frac_hi] form, per
// spec.md §3/§4.3 (e.g. 2450.0 -> [0x92, 0x09, 0x00, 0x00]).
func FrequencyFromMHz(mhz float64) [4]byte {
	whole := uint16(mhz)
	frac := uint16((mhz - float64(whole)) * 65536)
	return [4]byte{
		byte(whole), byte(whole >> 8),
		byte(frac), byte(frac >> 8),
	}
}

// InterfaceFromPort derives the Config.Interface field from the digits in
// a serial-port identifier — "/dev/ttyACM0" -> 0, "COM5" -> 5 — per spec.md
// §3 and ti_sniffer_controller.py's constructor
// (int(''.join(filter(str.isdigit, self.port)))). A port with no digits
// yields 0; a digit run too long for 16 bits keeps only its low 16 bits,
// since the board field is fixed-width regardless of what the host OS names
// the port, and a digit run too long for 64 bits yields 0.
func InterfaceFromPort(port string) uint16 {
	var digits []byte
	for i := 0; i < len(port); i++ {
		if port[i] >= '0' && port[i] <= '9' {
			digits = append(digits, port[i])
		}
	}
	if len(digits) == 0 {
		return 0
	}
	n, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return 0
	}
	return uint16(n)
}

// DataPacket is a decoded DATA frame (spec.md §3).
type DataPacket struct {
	TimestampUS uint64
	Payload     []byte
	RSSIRaw     byte
	Status      byte
}

// RSSIToDBm converts a raw signed-8-bit RSSI byte to dBm.
func RSSIToDBm(raw byte) int {
	if raw >= 128 {
		return int(raw) - 256
	}
	return int(raw)
}

// EnrichedPacket is a DataPacket merged with the Config snapshot in effect
// at the moment it was dispatched (spec.md §9 "per-packet enrichment").
type EnrichedPacket struct {
	DataPacket
	Config Config
}

// ErrorKind classifies an inbound ERROR (0xC1) frame's first data byte.
type ErrorKind int

const (
	RxBufOverflow ErrorKind = iota
	UnknownError
)

func (k ErrorKind) String() string {
	if k == RxBufOverflow {
		return "RX_BUF_OVERFLOW"
	}
	return "UNKNOWN"
}

// classifyError maps an ERROR frame's command_data[0] to an ErrorKind.
func classifyError(data []byte) ErrorKind {
	if len(data) > 0 && data[0] == 0x01 {
		return RxBufOverflow
	}
	return UnknownError
}
