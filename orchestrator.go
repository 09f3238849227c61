package main

import (
	"fmt"
	"time"

	"github.com/AcenoTecnologia/pyniffer/pkg/pcap"
	"github.com/AcenoTecnologia/pyniffer/pkg/sink"
	"github.com/AcenoTecnologia/pyniffer/pkg/sniffer"
	"github.com/AcenoTecnologia/pyniffer/pkg/transport"
)

// Orchestrator wires SerialTransport, ControllerFSM, PcapEmitter, and
// OutputSink together for one capture run (spec.md §4.7): connect, start,
// stream, stop, and tear everything down in reverse order regardless of
// where a failure occurs.
type Orchestrator struct {
	port *transport.Serial
	ctrl *sniffer.Controller
	out  sink.Sink
	em   *pcap.Emitter

	count int
}

// Options configures one capture run.
type Options struct {
	PortPath string
	Timeout  time.Duration

	OutputPath string
	Pipe       bool

	Frequency float64
	PHY       byte
	Channel   uint16

	Debug bool
}

// Open opens the serial port and output sink, writes the pcap global
// header, and connects the controller (Stop -> Configure -> Ping). On any
// failure, everything opened so far is closed before returning.
func Open(opts Options) (*Orchestrator, error) {
	port, err := transport.Open(opts.PortPath, opts.Timeout)
	if err != nil {
		return nil, err
	}

	out, err := openSink(opts.OutputPath, opts.Pipe)
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	em, err := pcap.NewEmitter(out)
	if err != nil {
		_ = out.Close()
		_ = port.Close()
		return nil, fmt.Errorf("write pcap header: %w", err)
	}

	ctrl := sniffer.NewController(port, opts.Debug)
	ctrl.SetInterface(sniffer.InterfaceFromPort(opts.PortPath))
	ctrl.SetChannel(opts.Channel)
	ctrl.SetFrequency(sniffer.FrequencyFromMHz(opts.Frequency))
	ctrl.SetPHY(opts.PHY)

	o := &Orchestrator{port: port, ctrl: ctrl, out: out, em: em}

	if err := ctrl.Connect(); err != nil {
		_ = o.Close()
		return nil, err
	}
	return o, nil
}

func openSink(path string, pipe bool) (sink.Sink, error) {
	if pipe {
		return sink.OpenNamedPipe(path)
	}
	return sink.OpenFile(path)
}

// Run starts the board, streams captured packets to the pcap emitter for
// duration (0 = unbounded until cancel returns true or the transport
// errors), and stops the board before returning. Once START has succeeded,
// the board is always sent STOP, even when streaming fails; if START fails,
// Run returns its error without sending STOP.
func (o *Orchestrator) Run(duration time.Duration, cancel func() bool) error {
	if err := o.ctrl.Start(); err != nil {
		return err
	}

	var writeErr error
	combinedCancel := func() bool {
		if writeErr != nil {
			return true
		}
		return cancel != nil && cancel()
	}

	streamErr := o.ctrl.Stream(duration, combinedCancel, func(p sniffer.EnrichedPacket) {
		if writeErr != nil {
			return
		}
		// A broken sink (closed pipe reader, full disk) stops capture
		// on the next loop iteration via combinedCancel above.
		if err := o.em.WriteEnrichedPacket(p); err != nil {
			writeErr = err
			return
		}
		o.count++
	})

	if _, err := o.ctrl.Stop(); err != nil && streamErr == nil && writeErr == nil {
		streamErr = err
	}
	if writeErr != nil {
		return writeErr
	}
	return streamErr
}

// Close flushes nothing (the emitter is unbuffered) and closes the sink and
// serial port in that order. Open uses it to clean up when Connect fails.
func (o *Orchestrator) Close() error {
	var outErr, portErr error
	if o.out != nil {
		outErr = o.out.Close()
	}
	if o.port != nil {
		portErr = o.port.Close()
	}
	if outErr != nil {
		return outErr
	}
	return portErr
}

// BoardInfo returns the board info learned during Open's Ping.
func (o *Orchestrator) BoardInfo() sniffer.BoardInfo { return o.ctrl.BoardInfo() }

// PacketCount returns the number of packets successfully written so far.
func (o *Orchestrator) PacketCount() int { return o.count }
