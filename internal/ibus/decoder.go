package ibus

import (
	"encoding/binary"
	"io"
	"sync"
	"time"
)

// frameGap is the inter-byte silence that marks a frame boundary. The
// wire has no explicit start-of-frame marker, so any byte arriving at
// least this long after the previous one is treated as the length byte
// of a new frame, whatever state the parser was in.
const frameGap = 3 * time.Millisecond

// replyDelay is the line-turnaround pause before a telemetry reply.
// Request and reply share one wire through a resistor/diode combiner, so
// the responder must give the transmitter time to release the line.
const replyDelay = 100 * time.Microsecond

// parser states
type state int

const (
	stateLength      state = iota // waiting for the length byte of the next frame
	stateData                     // accumulating command and payload bytes
	stateChecksumLow              // waiting for the low checksum byte
	stateChecksumHigh             // waiting for the high checksum byte
	stateDiscard                  // frame consumed or rejected; ignore until the next gap
)

// Counters are the diagnostic counters a Bus keeps while decoding.
type Counters struct {
	// Received counts valid set-channels frames decoded.
	Received uint32 `json:"received"`
	// Errors counts frames rejected at the length byte. Checksum
	// mismatches are dropped silently and deliberately not counted here.
	Errors uint32 `json:"errors"`
	// Polls counts discover polls answered.
	Polls uint32 `json:"polls"`
	// SensorsSent counts sensor value replies sent.
	SensorsSent uint32 `json:"sensors_sent"`
}

// Sensor is one registered virtual telemetry sensor.
type Sensor struct {
	Type  byte   `json:"type"`
	Value uint16 `json:"value"`
}

// Bus decodes one IBus link and answers telemetry polls on it.
//
// A Bus owns the parser state for a single half-duplex serial link. Bytes
// read from the link are pushed in with Feed (or ProcessByte); telemetry
// replies are written synchronously to the writer passed to New while a
// poll frame is being dispatched. Hold one Bus per physical link;
// independent links never share state.
//
// All methods are safe for concurrent use, so the monitor and dashboard
// can snapshot channel values while the link goroutine feeds bytes.
type Bus struct {
	mu        sync.Mutex
	w         io.Writer
	now       func() time.Time
	delay     func(time.Duration)
	telemetry bool

	// parser state
	state   state
	buf     [MaxFrameLength]byte
	ptr     int
	length  int // expected command+payload bytes, total length minus Overhead
	chksum  uint16
	lchksum byte
	last    time.Time

	channels    [MaxChannels]uint16
	sensors     [MaxSensors + 1]Sensor // 1-based addresses, slot 0 unused
	sensorCount int

	counters Counters
}

// Option configures a Bus.
type Option func(*Bus)

// WithTelemetry enables or disables the sensor telemetry responder.
// Disabled by default; a Bus with telemetry off never writes to the link.
func WithTelemetry(on bool) Option {
	return func(b *Bus) { b.telemetry = on }
}

// WithClock replaces the time source used for the inter-frame gap
// heuristic. Tests use it to simulate byte timing deterministically.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) { b.now = now }
}

// WithDelay replaces the line-turnaround sleep taken before every
// telemetry reply. Tests stub it out to avoid real delays.
func WithDelay(fn func(time.Duration)) Option {
	return func(b *Bus) { b.delay = fn }
}

// New creates a Bus that writes telemetry replies to w. Pass io.Discard
// when the link is receive-only.
func New(w io.Writer, opts ...Option) *Bus {
	b := &Bus{
		w:     w,
		now:   time.Now,
		delay: time.Sleep,
		state: stateDiscard,
	}
	for _, opt := range opts {
		opt(b)
	}
	// last stays at the zero time so the first byte ever received is
	// treated as the start of a frame.
	return b
}

// Feed runs every byte of p through the parser, stamping each with the
// bus clock. This is the processing entry point the host calls after each
// read from the link; it drains p completely and never blocks beyond the
// bounded turnaround delay of any telemetry replies it triggers.
func (b *Bus) Feed(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, v := range p {
		b.processByte(v, b.now())
	}
}

// ProcessByte advances the parser by one byte received at the given time.
func (b *Bus) ProcessByte(v byte, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processByte(v, now)
}

func (b *Bus) processByte(v byte, now time.Time) {
	// A silent gap means the previous frame is over, however far the
	// parser got. This is the only resynchronization mechanism.
	if now.Sub(b.last) >= frameGap {
		b.state = stateLength
	}
	b.last = now

	switch b.state {
	case stateLength:
		if v > Overhead && v <= MaxFrameLength {
			b.ptr = 0
			b.length = int(v) - Overhead
			b.chksum = 0xFFFF - uint16(v)
			b.state = stateData
		} else {
			b.counters.Errors++
			b.state = stateDiscard
		}

	case stateData:
		b.buf[b.ptr] = v
		b.ptr++
		b.chksum -= uint16(v)
		if b.ptr == b.length {
			b.state = stateChecksumLow
		}

	case stateChecksumLow:
		b.lchksum = v
		b.state = stateChecksumHigh

	case stateChecksumHigh:
		if b.chksum == uint16(v)<<8|uint16(b.lchksum) {
			b.dispatch()
		}
		// One frame is processed at most once. Even after a valid
		// frame the parser waits for the next gap, so back-to-back
		// frames without a gap are invisible past the first.
		b.state = stateDiscard

	case stateDiscard:
		// Absorb bytes until a gap restarts parsing.
	}
}

// dispatch handles a checksum-valid frame sitting in buf[:length].
func (b *Bus) dispatch() {
	cmd := b.buf[0]
	if cmd == CmdChannels {
		// Only the channels actually present in the payload are
		// overwritten; a short frame leaves higher channels untouched.
		n := (b.length - 1) / 2
		if n > MaxChannels {
			n = MaxChannels
		}
		for i := 0; i < n; i++ {
			b.channels[i] = binary.LittleEndian.Uint16(b.buf[1+2*i:])
		}
		b.counters.Received++
		return
	}

	// Sensor polls are single-byte frames. The length guard keeps our
	// own replies from being decoded as requests when the TX line
	// loops back into the receiver.
	addr := int(cmd & 0x0f)
	if addr >= 1 && addr <= b.sensorCount && b.length == 1 && b.telemetry {
		b.reply(cmd&0xf0, addr)
	}
}

// ReadChannel returns the last decoded value for the given 0-based
// channel. Out-of-range indexes return 0, never an error.
func (b *Bus) ReadChannel(i int) uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= MaxChannels {
		return 0
	}
	return b.channels[i]
}

// Channels returns a snapshot of all decoded channel values.
func (b *Bus) Channels() []uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]uint16, MaxChannels)
	copy(out, b.channels[:])
	return out
}

// SetTelemetry enables or disables the telemetry responder at runtime.
func (b *Bus) SetTelemetry(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.telemetry = on
}

// Counters returns a snapshot of the diagnostic counters.
func (b *Bus) Counters() Counters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counters
}
