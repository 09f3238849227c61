package sniffer

import (
	"io"
	"log"

	"github.com/AcenoTecnologia/pyniffer/pkg/frame"
)

// Controller drives the ControllerFSM: command/response sequencing,
// board-info parsing, and frequency/PHY configuration. It owns no
// transport lifecycle of its own — callers pass an io.ReadWriter (typically
// a *transport.Serial) and are responsible for opening/closing it.
type Controller struct {
	rw    io.ReadWriter
	debug bool

	state  State
	info   BoardInfo
	config Config
}

// NewController creates a Controller bound to rw. debug, when true, logs
// every command sent and status received via the standard log package,
// mirroring TISnifferController's debug flag.
func NewController(rw io.ReadWriter, debug bool) *Controller {
	return &Controller{
		rw:    rw,
		debug: debug,
		state: WaitingForCommand,
		config: Config{
			PHY:       0x12,
			Frequency: FrequencyFromMHz(2450.0),
			Channel:   20,
		},
	}
}

func (c *Controller) logf(format string, args ...any) {
	if c.debug {
		log.Printf(format, args...)
	}
}

// State returns the controller's current FSM state.
func (c *Controller) State() State { return c.state }

// BoardInfo returns the most recently received board information.
func (c *Controller) BoardInfo() BoardInfo { return c.info }

// Config returns the current configuration snapshot.
func (c *Controller) Config() Config { return c.config }

// SetInterface sets the interface field attached to every captured packet
// (derived by the caller from the serial port name, per spec.md §3).
func (c *Controller) SetInterface(iface uint16) { c.config.Interface = iface }

// SetChannel sets the informational channel metadata attached to every
// captured packet.
func (c *Controller) SetChannel(channel uint16) { c.config.Channel = channel }

// SetFrequency sets the frequency Connect will configure the board with.
// Has no effect on an already-Connect-ed board; call Configure directly
// for that.
func (c *Controller) SetFrequency(freq [4]byte) { c.config.Frequency = freq }

// SetPHY sets the PHY index Connect will configure the board with.
func (c *Controller) SetPHY(phy byte) { c.config.PHY = phy }

// roundTrip writes one command frame and reads exactly one response frame,
// discarding any DATA frames observed while waiting (spec.md §4.3: the
// board should not emit data while stopped; this is a defensive invariant).
func (c *Controller) roundTrip(kind frame.CommandKind, payload []byte) (frame.Frame, error) {
	if _, err := c.rw.Write(frame.Encode(kind, payload)); err != nil {
		return frame.Frame{}, err
	}
	for {
		resp, err := frame.Decode(c.rw)
		if err != nil {
			return frame.Frame{}, err
		}
		if resp.PacketInfo == byte(frame.Data) {
			c.logf("[sniffer] discarding unexpected DATA frame while awaiting response to %#02x", byte(kind))
			continue
		}
		return resp, nil
	}
}

// Connect issues STOP (idempotent: a non-zero status is logged and the FSM
// is still treated as Stopped), applies the controller's configured
// frequency and PHY, then PINGs the board to populate BoardInfo. This is
// the mandated connect sequence from spec.md §4.3, ordered as in the
// original ti_sniffer_controller.py.
func (c *Controller) Connect() error {
	status, err := c.Stop()
	if err != nil {
		return err
	}
	if status != 0x00 {
		log.Printf("[sniffer] stop on connect: %v", &StatusError{Status: status})
		c.state = Stopped
	}
	if err := c.Configure(c.config.Frequency, c.config.PHY); err != nil {
		return err
	}
	if _, err := c.Ping(); err != nil {
		return err
	}
	return nil
}

// Ping sends PING and parses the board-info response. On status 0x00 while
// in WaitingForCommand, the FSM transitions to Init.
func (c *Controller) Ping() (BoardInfo, error) {
	c.logf("[sniffer] ping")
	resp, err := c.roundTrip(frame.Ping, nil)
	if err != nil {
		return BoardInfo{}, err
	}
	info, err := parseBoardInfo(resp.Data)
	if err != nil {
		return BoardInfo{}, err
	}
	c.info = info
	c.logf("[sniffer] ping status=%#02x chip_id=%#04x chip_rev=%#02x fw_id=%#02x fw_rev=%d.%d",
		info.Status, info.ChipID, info.ChipRev, info.FWID, info.FWRevMajor, info.FWRevMinor)
	if info.Status == 0x00 && c.state == WaitingForCommand {
		c.state = Init
	}
	return info, nil
}

func parseBoardInfo(data []byte) (BoardInfo, error) {
	if len(data) < 7 {
		return BoardInfo{}, &frame.FrameError{Kind: frame.LengthMismatch}
	}
	return BoardInfo{
		Status:     data[0],
		ChipID:     uint16(data[1]) | uint16(data[2])<<8,
		ChipRev:    data[3],
		FWID:       data[4],
		FWRevMajor: data[5],
		FWRevMinor: data[6],
	}, nil
}

// Configure sends CFG_FREQUENCY then CFG_PHY. Both must return status
// 0x00 or Configure fails with *ConfigRejected. Legal only in Stopped.
func (c *Controller) Configure(frequency [4]byte, phy byte) error {
	if c.state != Stopped {
		return &StateError{Op: "configure", Current: c.state, Required: Stopped}
	}

	c.logf("[sniffer] configure frequency=% x phy=%#02x", frequency, phy)

	resp, err := c.roundTrip(frame.CfgFrequency, frequency[:])
	if err != nil {
		return err
	}
	if len(resp.Data) == 0 || resp.Data[0] != 0x00 {
		return &ConfigRejected{Which: "frequency", Status: statusByte(resp.Data)}
	}
	c.config.Frequency = frequency

	resp, err = c.roundTrip(frame.CfgPHY, []byte{phy})
	if err != nil {
		return err
	}
	if len(resp.Data) == 0 || resp.Data[0] != 0x00 {
		return &ConfigRejected{Which: "phy", Status: statusByte(resp.Data)}
	}
	c.config.PHY = phy

	return nil
}

// Start sends START; on status 0x00 the FSM transitions to Started. Legal
// only in Stopped, per the spec.md §4.3 transition diagram.
func (c *Controller) Start() error {
	if c.state != Stopped {
		return &StateError{Op: "start", Current: c.state, Required: Stopped}
	}

	c.logf("[sniffer] start")
	resp, err := c.roundTrip(frame.Start, nil)
	if err != nil {
		return err
	}
	if status := statusByte(resp.Data); status != 0x00 {
		return &StatusError{Status: status}
	}
	c.state = Started
	return nil
}

// Stop sends STOP; on status 0x00 the FSM transitions to Stopped. The
// returned status is not an error by itself — callers may call Stop
// idempotently (e.g. on connect) and inspect the status without treating
// a non-zero value as fatal, per spec.md §4.3.
func (c *Controller) Stop() (byte, error) {
	c.logf("[sniffer] stop")
	resp, err := c.roundTrip(frame.Stop, nil)
	if err != nil {
		return 0, err
	}
	status := statusByte(resp.Data)
	if status == 0x00 {
		c.state = Stopped
	}
	return status, nil
}

func statusByte(data []byte) byte {
	if len(data) == 0 {
		return 0xFF
	}
	return data[0]
}
