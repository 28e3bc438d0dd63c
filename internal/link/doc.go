// Package link connects an ibus.Bus to a byte source.
//
// The real source is a UART opened with go.bug.st/serial at the fixed
// IBus rate of 115200 baud; replies from the telemetry responder are
// written back through the same port, matching the single-wire
// half-duplex electrical scheme. A demo source synthesizes plausible
// traffic for running the monitor and dashboard without hardware.
//
// Polling is cooperative: Run calls Poll in a loop, and each Poll drains
// whatever bytes are currently available into the bus. The serial read
// timeout paces the loop and bounds how long a Poll can block.
package link
