package sniffer

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/AcenoTecnologia/pyniffer/pkg/frame"
)

// rwPipe is an in-memory io.ReadWriter feeding pre-recorded response frames
// for each write, used to drive Controller/Stream without real hardware.
type rwPipe struct {
	toRead  *bytes.Buffer
	written [][]byte
}

func newRWPipe(responses ...[]byte) *rwPipe {
	buf := &bytes.Buffer{}
	for _, r := range responses {
		buf.Write(r)
	}
	return &rwPipe{toRead: buf}
}

func (p *rwPipe) Write(b []byte) (int, error) {
	cp := make([]byte, len(b))
	copy(cp, b)
	p.written = append(p.written, cp)
	return len(b), nil
}

func (p *rwPipe) Read(b []byte) (int, error) {
	return p.toRead.Read(b)
}

func respFrame(packetInfo byte, data []byte) []byte {
	length := uint16(len(data))
	out := []byte{0x40, 0x53, packetInfo, byte(length), byte(length >> 8)}
	out = append(out, data...)
	out = append(out, frame.FCS(packetInfo, data))
	out = append(out, 0x40, 0x45)
	return out
}

func TestRSSIToDBm(t *testing.T) {
	tests := []struct {
		raw  byte
		want int
	}{
		{0x00, 0},
		{0x7F, 127},
		{0x80, -128},
		{0xC5, -59},
		{0xFF, -1},
	}
	for _, tt := range tests {
		if got := RSSIToDBm(tt.raw); got != tt.want {
			t.Errorf("RSSIToDBm(%#02x) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestInterfaceFromPort(t *testing.T) {
	tests := []struct {
		port string
		want uint16
	}{
		{"/dev/ttyACM0", 0},
		{"/dev/ttyUSB5", 5},
		{"COM5", 5},
		{"COM12", 12},
		{"/dev/ttyS0", 0},
		{"no-digits-here", 0},
	}
	for _, tt := range tests {
		if got := InterfaceFromPort(tt.port); got != tt.want {
			t.Errorf("InterfaceFromPort(%q) = %d, want %d", tt.port, got, tt.want)
		}
	}
}

func TestPingParsesBoardInfo(t *testing.T) {
	payload := []byte{0x00, 0x50, 0x13, 0x21, 0x01, 0x0A, 0x00}
	pipe := newRWPipe(respFrame(0x80, payload))
	c := NewController(pipe, false)

	info, err := c.Ping()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	want := BoardInfo{Status: 0x00, ChipID: 0x1350, ChipRev: 0x21, FWID: 0x01, FWRevMajor: 0x0A, FWRevMinor: 0x00}
	if info != want {
		t.Errorf("BoardInfo = %+v, want %+v", info, want)
	}
	if c.State() != Init {
		t.Errorf("state = %v, want Init", c.State())
	}
}

func TestConfigureRequiresStopped(t *testing.T) {
	pipe := newRWPipe()
	c := NewController(pipe, false)
	err := c.Configure(FrequencyFromMHz(2450.0), 0x12)
	var se *StateError
	if err == nil {
		t.Fatal("expected StateError, got nil")
	}
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StateError", err)
	}
}

func TestConfigureSendsFrequencyThenPHY(t *testing.T) {
	pipe := newRWPipe(respFrame(0x85, []byte{0x00}), respFrame(0x87, []byte{0x00}))
	c := NewController(pipe, false)
	c.state = Stopped

	freq := FrequencyFromMHz(2450.0)
	if err := c.Configure(freq, 0x11); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if len(pipe.written) != 2 {
		t.Fatalf("wrote %d frames, want 2", len(pipe.written))
	}
	wantFreq := frame.Encode(frame.CfgFrequency, freq[:])
	if !bytes.Equal(pipe.written[0], wantFreq) {
		t.Errorf("first frame = % x, want % x", pipe.written[0], wantFreq)
	}
	wantPhy := frame.Encode(frame.CfgPHY, []byte{0x11})
	if !bytes.Equal(pipe.written[1], wantPhy) {
		t.Errorf("second frame = % x, want % x", pipe.written[1], wantPhy)
	}
	if c.Config().PHY != 0x11 || c.Config().Frequency != freq {
		t.Errorf("config not updated: %+v", c.Config())
	}
}

func TestConfigureRejected(t *testing.T) {
	pipe := newRWPipe(respFrame(0x85, []byte{0x03}))
	c := NewController(pipe, false)
	c.state = Stopped

	err := c.Configure(FrequencyFromMHz(2450.0), 0x11)
	var cr *ConfigRejected
	if !errors.As(err, &cr) {
		t.Fatalf("err = %v, want *ConfigRejected", err)
	}
	if cr.Which != "frequency" || cr.Status != 0x03 {
		t.Errorf("ConfigRejected = %+v", cr)
	}
}

func TestStartTransitionsToStarted(t *testing.T) {
	pipe := newRWPipe(respFrame(0x81, []byte{0x00}))
	c := NewController(pipe, false)
	c.state = Stopped

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.State() != Started {
		t.Errorf("state = %v, want Started", c.State())
	}
}

func TestStartRequiresStopped(t *testing.T) {
	pipe := newRWPipe()
	c := NewController(pipe, false)
	err := c.Start()
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StateError", err)
	}
}

func TestDataFrameDiscardedDuringCommand(t *testing.T) {
	dataFrame := respFrame(byte(frame.Data), []byte{0, 0, 0, 0, 0, 0, 0xAA, 0xBB})
	statusFrame := respFrame(0x81, []byte{0x00})
	pipe := newRWPipe(dataFrame, statusFrame)
	c := NewController(pipe, false)
	c.state = Stopped

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.State() != Started {
		t.Errorf("state = %v, want Started (DATA frame should have been discarded)", c.State())
	}
}

func TestStreamDispatchesDataPacket(t *testing.T) {
	payload := []byte{0xA0, 0x86, 0x01, 0x00, 0x00, 0x00, 0xDE, 0xAD, 0xBE, 0xEF, 0xC5, 0x80}
	pipe := newRWPipe(respFrame(byte(frame.Data), payload))
	c := NewController(pipe, false)
	c.state = Started
	c.config = Config{Interface: 5, PHY: 0x12, Frequency: FrequencyFromMHz(2450.0), Channel: 20}

	var got []EnrichedPacket
	err := c.Stream(0, func() bool { return len(got) > 0 }, func(p EnrichedPacket) {
		got = append(got, p)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d packets, want 1", len(got))
	}
	p := got[0]
	if p.TimestampUS != 100_000 {
		t.Errorf("TimestampUS = %d, want 100000", p.TimestampUS)
	}
	if !bytes.Equal(p.Payload, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("Payload = % x", p.Payload)
	}
	if RSSIToDBm(p.RSSIRaw) != -59 {
		t.Errorf("RSSI dBm = %d, want -59", RSSIToDBm(p.RSSIRaw))
	}
	if p.Status != 0x80 {
		t.Errorf("Status = %#02x, want 0x80", p.Status)
	}
	if p.Config.Interface != 5 {
		t.Errorf("Config not enriched: %+v", p.Config)
	}
}

func TestStreamContinuesPastErrorFrame(t *testing.T) {
	errFrame := respFrame(byte(frame.Error), []byte{0x01})
	dataPayload := []byte{0, 0, 0, 0, 0, 0, 0x01, 0x02, 0xC5, 0x80}
	dataFrame := respFrame(byte(frame.Data), dataPayload)
	pipe := newRWPipe(errFrame, dataFrame)
	c := NewController(pipe, false)
	c.state = Started

	var count int
	err := c.Stream(0, func() bool { return count > 0 }, func(EnrichedPacket) { count++ })
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestStreamRequiresStarted(t *testing.T) {
	pipe := newRWPipe()
	c := NewController(pipe, false)
	err := c.Stream(0, nil, func(EnrichedPacket) {})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestStreamHonorsDuration(t *testing.T) {
	dataPayload := []byte{0, 0, 0, 0, 0, 0, 0x01, 0xC5, 0x80}
	var responses [][]byte
	for i := 0; i < 5; i++ {
		responses = append(responses, respFrame(byte(frame.Data), dataPayload))
	}
	pipe := newRWPipe(responses...)
	c := NewController(pipe, false)
	c.state = Started

	var count int
	start := time.Now()
	err := c.Stream(1*time.Nanosecond, nil, func(EnrichedPacket) { count++ })
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if count == 0 {
		t.Error("expected at least one packet before duration elapsed")
	}
	if time.Since(start) > time.Second {
		t.Error("stream ran far longer than the requested duration")
	}
}

