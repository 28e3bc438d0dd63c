package link

import (
	"io"
	"math"
	"time"

	"github.com/rcwire/ibuslink/internal/ibus"
)

// demoFramePeriod matches the ~7ms cadence of a real receiver closely
// enough for the monitor to feel live without flooding the decoder.
const demoFramePeriod = 20 * time.Millisecond

// Demo is a Source that synthesizes IBus traffic so the monitor and
// dashboard can run without hardware: sweeping channel frames plus a
// periodic sensor value poll for each registered sensor.
type Demo struct {
	bus   *ibus.Bus
	last  time.Time
	phase float64
	frame int
}

// NewDemo creates a demo source. Telemetry replies are discarded.
func NewDemo(telemetry bool) *Demo {
	return &Demo{
		bus: ibus.New(io.Discard, ibus.WithTelemetry(telemetry)),
	}
}

// Bus returns the decoder fed by this source.
func (d *Demo) Bus() *ibus.Bus { return d.bus }

// Open is a no-op; the demo source is always ready.
func (d *Demo) Open() error { return nil }

// Close is a no-op.
func (d *Demo) Close() error { return nil }

// Poll feeds one synthetic frame when the frame period has elapsed. The
// sleep stands in for the serial read timeout so the run loop does not
// spin.
func (d *Demo) Poll() error {
	if since := time.Since(d.last); since < demoFramePeriod {
		time.Sleep(demoFramePeriod - since)
	}
	d.last = time.Now()
	d.bus.Feed(d.nextFrame())
	return nil
}

// nextFrame builds the next synthetic frame: mostly channel sweeps, with
// a sensor value poll mixed in every tenth frame.
func (d *Demo) nextFrame() []byte {
	d.frame++
	if n := d.bus.SensorCount(); n > 0 && d.frame%10 == 0 {
		addr := (d.frame / 10 % n) + 1
		d.bus.SetSensorValue(addr, uint16(400+100*math.Sin(d.phase)))
		frame, err := ibus.BuildPollFrame(ibus.CmdValue, addr)
		if err == nil {
			return frame
		}
	}

	d.phase += 0.05
	channels := make([]uint16, ibus.MaxChannels)
	for i := range channels {
		// Servo-style sweep around 1500µs, each channel offset in phase.
		offset := d.phase + float64(i)*0.6
		channels[i] = uint16(1500 + 400*math.Sin(offset))
	}
	frame, err := ibus.BuildChannelFrame(channels)
	if err != nil {
		return nil
	}
	return frame
}
