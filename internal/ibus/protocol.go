package ibus

import (
	"encoding/binary"
	"fmt"
)

// Wire format constants for the FlySky IBus serial protocol.
//
// Every frame starts with a length byte that counts the whole frame
// (length byte, command/payload bytes and the two checksum bytes), so the
// length byte doubles as the only start-of-frame marker on the wire.
const (
	// MaxFrameLength is the longest frame the protocol allows, length
	// byte and checksum included (0x20 = 32 bytes).
	MaxFrameLength = 0x20

	// Overhead is the number of non-payload bytes in a frame: the length
	// byte plus the two checksum bytes.
	Overhead = 3

	// MaxChannels is the number of servo channels decoded from a channel
	// frame. A full 0x20 frame has room for 14 channel slots but the
	// receivers only drive the first 10.
	MaxChannels = 10

	// BufferChannels is the number of channel slots a maximum-length
	// frame can carry.
	BufferChannels = 14

	// MaxSensors is the number of virtual telemetry sensors one bus can
	// expose. Sensor addresses are 1-based, 1..MaxSensors.
	MaxSensors = 10
)

// Command bytes. For sensor commands the high nibble selects the
// sub-command and the low nibble carries the 1-based sensor address.
const (
	// CmdChannels is the set-channels command sent by the receiver:
	// payload is little-endian uint16 pairs, one per channel.
	CmdChannels = 0x40

	// CmdDiscover asks whether a sensor exists at the addressed slot.
	CmdDiscover = 0x80

	// CmdType asks for the sensor's type code.
	CmdType = 0x90

	// CmdValue asks for the sensor's current measurement.
	CmdValue = 0xA0
)

// sensorTypeTrailer is the fixed fourth byte of a type reply. Its meaning
// is not documented by FlySky; transmitters expect exactly 0x02.
const sensorTypeTrailer = 0x02

// Checksum computes the IBus frame checksum over the given bytes:
// 0xFFFF minus the byte sum, truncated to 16 bits. It covers the length
// byte through the last payload byte and is transmitted low byte first.
func Checksum(frame []byte) uint16 {
	sum := uint16(0)
	for _, b := range frame {
		sum += uint16(b)
	}
	return 0xFFFF - sum
}

// AppendChecksum appends the little-endian checksum of frame to frame and
// returns the extended slice.
func AppendChecksum(frame []byte) []byte {
	return binary.LittleEndian.AppendUint16(frame, Checksum(frame))
}

// BuildChannelFrame constructs a complete set-channels frame for the given
// channel values, checksum included. Up to BufferChannels values fit in a
// single frame.
//
// This is the transmit-side counterpart of the decoder and is used by the
// demo link source, the offline decode command and tests.
func BuildChannelFrame(channels []uint16) ([]byte, error) {
	if len(channels) > BufferChannels {
		return nil, fmt.Errorf("ibus: too many channels: %d (max %d)", len(channels), BufferChannels)
	}

	// length byte + command byte + 2 bytes per channel
	frame := make([]byte, 0, 2+2*len(channels)+2)
	frame = append(frame, byte(Overhead+1+2*len(channels)), CmdChannels)
	for _, ch := range channels {
		frame = binary.LittleEndian.AppendUint16(frame, ch)
	}
	return AppendChecksum(frame), nil
}

// BuildPollFrame constructs the 4-byte sensor poll frame a transmitter
// sends for the given sub-command (CmdDiscover, CmdType or CmdValue) and
// 1-based sensor address.
func BuildPollFrame(cmd byte, addr int) ([]byte, error) {
	switch cmd {
	case CmdDiscover, CmdType, CmdValue:
	default:
		return nil, fmt.Errorf("ibus: unknown sensor sub-command 0x%02x", cmd)
	}
	if addr < 1 || addr > 0x0f {
		return nil, fmt.Errorf("ibus: sensor address %d out of range 1..15", addr)
	}
	return AppendChecksum([]byte{0x04, cmd | byte(addr)}), nil
}
