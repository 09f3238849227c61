package sniffer

import (
	"errors"
	"log"
	"time"

	"github.com/AcenoTecnologia/pyniffer/pkg/frame"
)

// SinkFunc receives one enriched packet per DATA frame observed. It must
// not block for long — the stream loop is strictly single-threaded and
// delivers packets in exact arrival order (spec.md §5).
type SinkFunc func(EnrichedPacket)

// Stream reads frames from the transport while the controller is Started,
// dispatching DATA frames to sink and logging (but not propagating) ERROR
// frames and anything else unrecognized. duration bounds the capture to
// that many seconds of wall-clock time; duration <= 0 streams until the
// transport errors or ctx-like cancellation is observed at a frame
// boundary via cancel.
//
// Stream returns *StateError if the controller is not Started, and
// propagates *frame.FrameError / io errors from a broken transport —
// those are the only fatal conditions (spec.md §7). cancel may be nil.
func (c *Controller) Stream(duration time.Duration, cancel func() bool, sink SinkFunc) error {
	if c.state != Started {
		return &StateError{Op: "stream", Current: c.state, Required: Started}
	}

	start := time.Now()
	for {
		f, err := frame.Decode(c.rw)
		if err != nil {
			var fe *frame.FrameError
			if errors.As(err, &fe) {
				return fe
			}
			return err
		}

		switch f.PacketInfo {
		case byte(frame.Data):
			packet, err := decodeDataPacket(f.Data)
			if err != nil {
				c.logf("[sniffer] malformed DATA frame: %v", err)
			} else {
				sink(EnrichedPacket{DataPacket: packet, Config: c.config})
			}
		case byte(frame.Error):
			kind := classifyError(f.Data)
			log.Printf("[sniffer] board error: %s", kind)
		default:
			c.logf("[sniffer] unexpected frame packet_info=%#02x while streaming", f.PacketInfo)
		}

		if duration > 0 && time.Since(start) >= duration {
			return nil
		}
		if cancel != nil && cancel() {
			return nil
		}
	}
}

// decodeDataPacket splits a DATA frame's command_data into timestamp,
// payload, RSSI, and status per spec.md §3: a 6-byte little-endian
// microsecond timestamp, the radio payload, a trailing RSSI byte, and a
// trailing status byte.
func decodeDataPacket(data []byte) (DataPacket, error) {
	const minLen = 6 + 2 // timestamp + rssi + status, payload may be empty
	if len(data) < minLen {
		return DataPacket{}, &frame.FrameError{Kind: frame.LengthMismatch}
	}

	var ts uint64
	for i := 0; i < 6; i++ {
		ts |= uint64(data[i]) << (8 * i)
	}

	payload := data[6 : len(data)-2]
	out := make([]byte, len(payload))
	copy(out, payload)

	return DataPacket{
		TimestampUS: ts,
		Payload:     out,
		RSSIRaw:     data[len(data)-2],
		Status:      data[len(data)-1],
	}, nil
}
