package link

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/rcwire/ibuslink/internal/ibus"
	"github.com/rcwire/ibuslink/internal/logging"
)

const (
	// DefaultBaud is the fixed IBus line rate.
	DefaultBaud = 115200

	// readTimeout bounds a single Poll so the run loop stays
	// responsive to cancellation. Shorter than the 7ms frame period so
	// a poll never straddles more than one frame boundary's worth of
	// silence.
	readTimeout = 5 * time.Millisecond
)

// Source is one byte source feeding a Bus: a real serial port or the
// demo generator.
type Source interface {
	// Open prepares the source for polling.
	Open() error
	// Poll drains currently available bytes into the bus. It never
	// blocks longer than the source's read timeout.
	Poll() error
	// Close releases the source.
	Close() error
	// Bus returns the decoder fed by this source.
	Bus() *ibus.Bus
}

// Link reads a UART with go.bug.st/serial and feeds the decoded IBus
// stream to its Bus. Telemetry replies go back out the same port.
type Link struct {
	portPath string
	baud     int
	port     serial.Port
	bus      *ibus.Bus
	readBuf  [64]byte
}

// NewLink creates a serial link source. The Bus is created immediately
// so sensors can be registered before the port opens; replies written
// before Open are dropped.
func NewLink(portPath string, baud int, telemetry bool) *Link {
	l := &Link{portPath: portPath, baud: baud}
	if l.baud == 0 {
		l.baud = DefaultBaud
	}
	l.bus = ibus.New(l, ibus.WithTelemetry(telemetry))
	return l
}

// Bus returns the decoder fed by this link.
func (l *Link) Bus() *ibus.Bus { return l.bus }

// Write forwards telemetry replies to the serial port. Satisfies
// io.Writer so the Bus can write through the link.
func (l *Link) Write(p []byte) (int, error) {
	if l.port == nil {
		return len(p), nil
	}
	return l.port.Write(p)
}

// Open opens the serial port at 8N1 and flushes any stale input so the
// parser starts on a frame boundary.
func (l *Link) Open() error {
	mode := &serial.Mode{
		BaudRate: l.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(l.portPath, mode)
	if err != nil {
		return fmt.Errorf("link: failed to open %s: %w", l.portPath, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("link: failed to set read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return fmt.Errorf("link: failed to flush input: %w", err)
	}
	l.port = port

	logging.Info("serial link opened",
		zap.String("port", l.portPath),
		zap.Int("baud", l.baud),
	)
	return nil
}

// Poll reads whatever the port has buffered (waiting at most the read
// timeout) and runs it through the decoder.
func (l *Link) Poll() error {
	if l.port == nil {
		return fmt.Errorf("link: not open")
	}
	n, err := l.port.Read(l.readBuf[:])
	if err != nil {
		return fmt.Errorf("link: read failed: %w", err)
	}
	if n > 0 {
		logging.LogFrame("rx", l.readBuf[:n])
		l.bus.Feed(l.readBuf[:n])
	}
	return nil
}

// Close closes the serial port.
func (l *Link) Close() error {
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	return err
}

// Run polls the source until the context is cancelled. The read timeout
// paces the loop; there is no extra sleep between polls.
func Run(ctx context.Context, src Source) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := src.Poll(); err != nil {
			return err
		}
	}
}
