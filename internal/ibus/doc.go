// Package ibus decodes the FlySky IBus RC protocol and answers sensor
// telemetry polls on the same half-duplex serial link.
//
// # Protocol Overview
//
// IBus frames travel over a single UART at 115200 baud with no explicit
// start-of-frame marker:
//   - Length byte: total frame size including itself and the checksum
//   - Command byte: high nibble = command, low nibble = sensor address
//   - Payload: command dependent, little-endian 16-bit fields
//   - Checksum: 0xFFFF minus the sum of all preceding bytes, sent low
//     byte first
//
// Frame boundaries are recovered from timing alone: receivers emit one
// frame every ~7 ms, so a >3 ms silent gap means the next byte is a
// length byte. The decoder is a byte-at-a-time state machine that rides
// on that heuristic and drops anything that fails the checksum.
//
// # Commands
//
// Three command families are recognized:
//   - 0x40 set channels: the receiver's servo output frame, up to 14
//     channel slots of which the first 10 are decoded
//   - 0x8X discover, 0x9X type, 0xAX value: sensor polls addressed to
//     the low nibble, answered synchronously on the same wire
//
// # Usage
//
//	bus := ibus.New(port, ibus.WithTelemetry(true))
//	temp := bus.AddSensor(0x01)
//	for {
//	    n, _ := port.Read(buf)
//	    bus.Feed(buf[:n])
//	    bus.SetSensorValue(temp, readTemperature())
//	    steering := bus.ReadChannel(0)
//	    ...
//	}
//
// # Error Handling
//
// Nothing in the hot path returns an error. Malformed frames are
// discarded and the stream resynchronizes on the next gap; the Counters
// snapshot exposes how often that happens. Accessors clamp out-of-range
// arguments instead of failing.
package ibus
