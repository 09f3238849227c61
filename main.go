package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"
)

var Version = "dev"

func main() {
	output := flag.String("o", "", "output PCAP file path (required)")
	pipeMode := flag.Bool("pipe", false, "treat -o as a named pipe/FIFO for live Wireshark streaming")
	freq := flag.Float64("freq", 2450.0, "frequency in MHz")
	phy := flag.Int("phy", 0x12, "PHY index")
	channel := flag.Int("channel", 20, "informational channel metadata")
	duration := flag.Float64("duration", 0, "capture duration in seconds (0 = unbounded, Ctrl-C to stop)")
	timeout := flag.Duration("timeout", 0, "serial read timeout (default 500ms)")
	verbose := flag.Bool("v", false, "verbose: show live capture status on stderr")
	debug := flag.Bool("debug", false, "debug: log every command/response exchanged with the board")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tisniff [flags] <serial-port>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	portPath := flag.Arg(0)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "error: -o (output file or pipe name) is required")
		flag.Usage()
		os.Exit(1)
	}
	if *phy < 0 || *phy > 0xFF {
		log.Fatalf("invalid -phy %d: must fit in one byte", *phy)
	}
	if *channel < 0 || *channel > 0xFFFF {
		log.Fatalf("invalid -channel %d: must fit in two bytes", *channel)
	}

	orc, err := Open(Options{
		PortPath:   portPath,
		Timeout:    *timeout,
		OutputPath: *output,
		Pipe:       *pipeMode,
		Frequency:  *freq,
		PHY:        byte(*phy),
		Channel:    uint16(*channel),
		Debug:      *debug,
	})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer func() {
		if err := orc.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	info := orc.BoardInfo()
	log.Printf("connected: chip_id=%#04x chip_rev=%#02x fw=%d.%d → %s",
		info.ChipID, info.ChipRev, info.FWRevMajor, info.FWRevMinor, *output)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	if interactive {
		interactive = enableVTProcessing()
	}

	var lastStatus time.Time
	cancel := func() bool {
		select {
		case <-sigChan:
			return true
		default:
		}
		if *verbose && time.Since(lastStatus) >= time.Second {
			printStatus(orc.PacketCount(), interactive)
			lastStatus = time.Now()
		}
		return false
	}

	var runDuration time.Duration
	if *duration > 0 {
		runDuration = time.Duration(*duration * float64(time.Second))
	}

	log.Printf("capturing on %s → %s (freq=%.1fMHz phy=%#02x)%s",
		portPath, *output, *freq, *phy, pipeNote(*pipeMode))

	runErr := orc.Run(runDuration, cancel)

	if *verbose && interactive {
		fmt.Fprintln(os.Stderr)
	}
	if runErr != nil {
		log.Printf("capture stopped: %v", runErr)
	}
	log.Printf("captured %d packets", orc.PacketCount())
}

func pipeNote(pipe bool) string {
	if pipe {
		return " [pipe]"
	}
	return ""
}

func printStatus(count int, interactive bool) {
	if interactive {
		fmt.Fprintf(os.Stderr, "\rpackets: %d          ", count)
	} else {
		fmt.Fprintf(os.Stderr, "packets: %d\n", count)
	}
}
