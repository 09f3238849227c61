// Package pcap builds a libpcap-format capture stream wrapping each
// captured radio frame in a synthetic IPv4/UDP/TI-Radio-Packet-Info
// envelope, matching the layout the vendor's Wireshark dissector expects
// (spec.md §4.5).
package pcap

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/AcenoTecnologia/pyniffer/pkg/sniffer"
)

const (
	magicNumber  uint32 = 0xa1b2c3d4
	versionMajor uint16 = 2
	versionMinor uint16 = 4
	sigFigs      uint32 = 0
	snapLen      uint32 = 262_144
	// network is DLT_IPV4 (228). The vendor dissector expects an
	// IPv4/UDP carrier around the TI Radio Packet Info layer; pure
	// 802.15.4 DLTs (195, 215) would omit that envelope but break the
	// dissector, so this is not offered as an alternative (spec.md §4.5).
	network uint32 = 228
)

// envelopeOverhead is the byte count of everything wrapped around the
// radio payload: 20-byte IPv4 header + 8-byte UDP header + 4-byte TI
// header + 2-byte interface + 1-byte separator + 1-byte phy + 4-byte
// frequency + 2-byte channel + 1-byte rssi + 1-byte fcs marker.
const envelopeOverhead = 20 + 8 + 4 + 2 + 1 + 1 + 4 + 2 + 1 + 1

var ipv4Template = [20]byte{
	0x45, 0x00, 0x00, 0x5B, 0x00, 0x00, 0x00, 0x00, 0x80, 0x11, 0xB7, 0x3B,
	0xC0, 0xA8, 0x01, 0x03, 0xC0, 0xA8, 0x01, 0x03,
}

var udpTemplate = [8]byte{
	0x45, 0x60, 0x45, 0x60, 0x00, 0x47, 0x1D, 0x82,
}

var tiHeader = [4]byte{0x00, 0x3C, 0x00, 0x00}

const (
	separator byte = 0x02
	fcsMarker byte = 0x80
)

// Emitter writes the pcap global header on construction and one per-packet
// record per captured EnrichedPacket thereafter.
type Emitter struct {
	w io.Writer

	firstPacketSeen bool
	anchor          int64 // Unix seconds: wall clock at which ts_us==0 would have occurred

	// totalLength is set by WritePacketHeader and consumed by the
	// following WritePacket call, mirroring the two-step
	// write_packet_header/write_packet split of the library surface
	// (spec.md §6).
	totalLength uint32
}

// NewEmitter wraps w and immediately writes the 24-byte global header.
func NewEmitter(w io.Writer) (*Emitter, error) {
	_, offsetSeconds := time.Now().Zone()

	hdr := struct {
		Magic        uint32
		VersionMajor uint16
		VersionMinor uint16
		ThisZone     int32
		SigFigs      uint32
		SnapLen      uint32
		Network      uint32
	}{
		Magic:        magicNumber,
		VersionMajor: versionMajor,
		VersionMinor: versionMinor,
		ThisZone:     int32(offsetSeconds),
		SigFigs:      sigFigs,
		SnapLen:      snapLen,
		Network:      network,
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	return &Emitter{w: w}, nil
}

// WritePacketHeader writes the 16-byte per-packet record header for p and
// records its envelope length for the following WritePacket call.
//
// The first packet ever seen anchors wall-clock time: anchor is chosen so
// that ts_sec for that packet equals the Unix time at which the emitter
// observed it, and every subsequent packet's ts_sec is anchor plus its
// device-relative timestamp. ts_usec is the true microsecond remainder
// (spec.md §9 — the original implementation computed this in
// milliseconds, which this emitter does not reproduce).
func (e *Emitter) WritePacketHeader(p sniffer.EnrichedPacket) error {
	e.totalLength = envelopeOverhead + uint32(len(p.Payload))

	if !e.firstPacketSeen {
		e.firstPacketSeen = true
		e.anchor = time.Now().Unix() - int64(p.TimestampUS/1_000_000)
	}
	tsSec := e.anchor + int64(p.TimestampUS/1_000_000)
	tsUsec := uint32(p.TimestampUS % 1_000_000)

	hdr := struct {
		TsSec   uint32
		TsUsec  uint32
		InclLen uint32
		OrigLen uint32
	}{
		TsSec:   uint32(tsSec),
		TsUsec:  tsUsec,
		InclLen: e.totalLength,
		OrigLen: e.totalLength,
	}
	return binary.Write(e.w, binary.LittleEndian, &hdr)
}

// WritePacket writes the envelope body — the synthetic IPv4/UDP headers,
// the TI Radio Packet Info block, and the radio payload — for p. It must
// be called immediately after WritePacketHeader for the same packet.
func (e *Emitter) WritePacket(p sniffer.EnrichedPacket) error {
	ipv4 := ipv4Template
	binary.BigEndian.PutUint16(ipv4[2:4], uint16(e.totalLength))

	udp := udpTemplate
	binary.BigEndian.PutUint16(udp[4:6], uint16(e.totalLength-20))

	buf := make([]byte, 0, e.totalLength)
	buf = append(buf, ipv4[:]...)
	buf = append(buf, udp[:]...)
	buf = append(buf, tiHeader[:]...)

	var ifaceBuf [2]byte
	binary.LittleEndian.PutUint16(ifaceBuf[:], p.Config.Interface)
	buf = append(buf, ifaceBuf[:]...)

	buf = append(buf, separator)
	buf = append(buf, p.Config.PHY)
	buf = append(buf, p.Config.Frequency[:]...)

	var channelBuf [2]byte
	binary.LittleEndian.PutUint16(channelBuf[:], p.Config.Channel)
	buf = append(buf, channelBuf[:]...)

	buf = append(buf, p.RSSIRaw)
	buf = append(buf, fcsMarker)
	buf = append(buf, p.Payload...)

	_, err := e.w.Write(buf)
	return err
}

// WriteEnrichedPacket writes both the record header and body for p, for
// callers that don't need the two-step split.
func (e *Emitter) WriteEnrichedPacket(p sniffer.EnrichedPacket) error {
	if err := e.WritePacketHeader(p); err != nil {
		return err
	}
	return e.WritePacket(p)
}
