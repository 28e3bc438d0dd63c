// Package server exposes live IBus link state over HTTP and WebSocket.
//
// The server pushes a JSON snapshot of the decoded channels, registered
// sensors and diagnostic counters to every connected WebSocket client on
// a fixed 100ms period; /api/status returns the same snapshot once for
// scripting. The data is read-only telemetry: no endpoint mutates the
// bus.
//
// When announcing is enabled the server registers itself on mDNS as
// _ibuslink._tcp so dashboards on the LAN can find it without
// configuration.
package server
