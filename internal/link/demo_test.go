package link

import (
	"testing"

	"github.com/rcwire/ibuslink/internal/ibus"
)

func TestDemoEmitsDecodableFrames(t *testing.T) {
	demo := NewDemo(false)
	if err := demo.Open(); err != nil {
		t.Fatal(err)
	}
	defer demo.Close()

	for i := 0; i < 3; i++ {
		if err := demo.Poll(); err != nil {
			t.Fatalf("Poll #%d: %v", i, err)
		}
	}

	cnt := demo.Bus().Counters()
	if cnt.Received != 3 {
		t.Errorf("Received = %d, want 3", cnt.Received)
	}
	if cnt.Errors != 0 {
		t.Errorf("Errors = %d, want 0", cnt.Errors)
	}

	for i := 0; i < ibus.MaxChannels; i++ {
		v := demo.Bus().ReadChannel(i)
		if v < 1000 || v > 2000 {
			t.Errorf("channel %d = %d, want servo range 1000..2000", i, v)
		}
	}
}

func TestDemoAnswersSensorPolls(t *testing.T) {
	demo := NewDemo(true)
	addr := demo.Bus().AddSensor(0x01)
	if addr != 1 {
		t.Fatalf("AddSensor = %d, want 1", addr)
	}

	// Every tenth frame is a sensor poll; run enough polls to hit one.
	for i := 0; i < 12; i++ {
		if err := demo.Poll(); err != nil {
			t.Fatal(err)
		}
	}

	if cnt := demo.Bus().Counters(); cnt.SensorsSent == 0 {
		t.Error("no sensor value reply was sent after 12 frames")
	}
}
