// Package monitor is the live terminal UI for an IBus link.
//
// It renders the ten decoded servo channels as bars scaled to the
// 1000-2000µs pulse range, the registered telemetry sensors with their
// current values, and the diagnostic counters. The UI samples the bus on
// a 50ms tick; decoding happens independently in the link goroutine.
//
// Key bindings: t toggles the telemetry responder, ? expands help,
// q quits.
package monitor
