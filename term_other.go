//go:build !windows

package main

// enableVTProcessing is a no-op outside Windows: every other terminal this
// tool runs under already honors "\r" without opt-in.
func enableVTProcessing() bool { return true }
