package sniffer

import "fmt"

// StatusError wraps a non-zero command-response status byte with its
// board-documented meaning (spec.md §4.3 status lookup table).
type StatusError struct {
	Status byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %#02x: %s", e.Status, statusMessage(e.Status))
}

func statusMessage(status byte) string {
	switch status {
	case 0x00:
		return "command was received correctly"
	case 0x01:
		return "reception of command timed out before all data was received"
	case 0x02:
		return "computation of frame check sequence did not succeed"
	case 0x03:
		return "the command has invalid format or is not supported"
	case 0x04:
		return "the command is invalid for the current state of the sniffer firmware"
	default:
		return "invalid status byte"
	}
}

// StateError reports an operation attempted in an FSM state that forbids
// it (e.g. Configure while Started).
type StateError struct {
	Op       string
	Current  State
	Required State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: sniffer is in %s, must be in %s", e.Op, e.Current, e.Required)
}

// ConfigRejected reports a non-zero status for a configuration sub-command.
type ConfigRejected struct {
	Which  string // "frequency" or "phy"
	Status byte
}

func (e *ConfigRejected) Error() string {
	return fmt.Sprintf("configure %s rejected: %s", e.Which, (&StatusError{Status: e.Status}).Error())
}
