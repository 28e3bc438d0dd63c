package monitor

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rcwire/ibuslink/internal/ibus"
)

func TestChannelPercent(t *testing.T) {
	tests := []struct {
		value uint16
		want  float64
	}{
		{1000, 0},
		{1500, 0.5},
		{2000, 1},
		{0, 0},      // below range clamps low
		{3000, 1},   // above range clamps high
		{1250, 0.25},
	}

	for _, tt := range tests {
		if got := channelPercent(tt.value); got != tt.want {
			t.Errorf("channelPercent(%d) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestTickSnapshotsBus(t *testing.T) {
	bus := ibus.New(io.Discard)
	frame, err := ibus.BuildChannelFrame([]uint16{1750})
	if err != nil {
		t.Fatal(err)
	}
	bus.Feed(frame)

	m := New(bus, nil, "demo", false)
	updated, _ := m.Update(tickMsg{})
	m = updated.(Model)

	if m.channels[0] != 1750 {
		t.Errorf("channels[0] = %d, want 1750", m.channels[0])
	}
	if m.counters.Received != 1 {
		t.Errorf("counters.Received = %d, want 1", m.counters.Received)
	}
}

func TestTelemetryToggle(t *testing.T) {
	bus := ibus.New(io.Discard)
	m := New(bus, nil, "demo", false)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	m = updated.(Model)

	if !m.telemetry {
		t.Error("telemetry should be enabled after pressing t")
	}
}

func TestViewListsAllChannels(t *testing.T) {
	bus := ibus.New(io.Discard)
	bus.AddSensor(0x01)

	m := New(bus, []string{"temperature"}, "demo", true)
	updated, _ := m.Update(tickMsg{})
	m = updated.(Model)

	view := m.View()
	for _, label := range []string{"CH01", "CH10", "temperature", "telemetry on"} {
		if !strings.Contains(view, label) {
			t.Errorf("view missing %q", label)
		}
	}
}
