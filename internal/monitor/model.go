package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rcwire/ibuslink/internal/ibus"
)

// refreshPeriod is the UI refresh rate. The link decodes frames far
// faster; the monitor just samples the latest state.
const refreshPeriod = 50 * time.Millisecond

// Servo pulse range the channel bars are scaled to.
const (
	pulseMin = 1000
	pulseMax = 2000
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshPeriod, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// monitorKeyMap defines key bindings for the monitor screen
type monitorKeyMap struct {
	Telemetry key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Telemetry, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Telemetry, k.Help, k.Quit},
	}
}

func defaultKeyMap() monitorKeyMap {
	return monitorKeyMap{
		Telemetry: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle telemetry"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the live link monitor screen.
type Model struct {
	bus         *ibus.Bus
	sensorNames []string
	source      string // "serial /dev/ttyUSB0" or "demo"

	// UI state
	Width  int
	Height int

	bars      []progress.Model
	channels  []uint16
	sensors   []ibus.Sensor
	counters  ibus.Counters
	telemetry bool

	Help help.Model
	Keys monitorKeyMap
}

// New creates a monitor for the given bus. sensorNames carries the
// configured display names in address order and may be nil.
func New(bus *ibus.Bus, sensorNames []string, source string, telemetry bool) Model {
	bars := make([]progress.Model, ibus.MaxChannels)
	for i := range bars {
		bars[i] = progress.New(
			progress.WithDefaultGradient(),
			progress.WithoutPercentage(),
		)
	}
	return Model{
		bus:         bus,
		sensorNames: sensorNames,
		source:      source,
		bars:        bars,
		channels:    make([]uint16, ibus.MaxChannels),
		telemetry:   telemetry,
		Help:        help.New(),
		Keys:        defaultKeyMap(),
	}
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		barWidth := m.Width - 16
		if barWidth < 10 {
			barWidth = 10
		}
		if barWidth > 60 {
			barWidth = 60
		}
		for i := range m.bars {
			m.bars[i].Width = barWidth
		}
		return m, nil

	case tickMsg:
		m.channels = m.bus.Channels()
		m.sensors = m.bus.Sensors()
		m.counters = m.bus.Counters()
		return m, tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Telemetry):
			m.telemetry = !m.telemetry
			m.bus.SetTelemetry(m.telemetry)
			return m, nil
		case key.Matches(msg, m.Keys.Help):
			m.Help.ShowAll = !m.Help.ShowAll
			return m, nil
		}
	}

	return m, nil
}

// View renders the monitor screen.
func (m Model) View() string {
	var b strings.Builder

	title := TitleStyle.Render("ibuslink monitor")
	src := CounterStyle.Render(" " + m.source)
	tele := TelemetryOffStyle.Render(" telemetry off")
	if m.telemetry {
		tele = TelemetryOnStyle.Render(" telemetry on")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, title, src, tele))
	b.WriteString("\n\n")

	for i, v := range m.channels {
		label := ChannelLabelStyle.Render(fmt.Sprintf("CH%02d", i+1))
		value := ChannelValueStyle.Render(fmt.Sprintf("%d", v))
		b.WriteString(label)
		b.WriteString(value)
		b.WriteString("  ")
		b.WriteString(m.bars[i].ViewAs(channelPercent(v)))
		b.WriteString("\n")
	}

	if len(m.sensors) > 0 {
		b.WriteString("\n")
		for i, s := range m.sensors {
			name := fmt.Sprintf("sensor %d", i+1)
			if i < len(m.sensorNames) && m.sensorNames[i] != "" {
				name = m.sensorNames[i]
			}
			b.WriteString("  ")
			b.WriteString(SensorNameStyle.Render(fmt.Sprintf("%-14s", name)))
			b.WriteString(SensorValueStyle.Render(fmt.Sprintf("%5d", s.Value)))
			b.WriteString(CounterStyle.Render(fmt.Sprintf("  (type 0x%02X)", s.Type)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	counters := fmt.Sprintf("frames %d  polls %d  sensors sent %d",
		m.counters.Received, m.counters.Polls, m.counters.SensorsSent)
	b.WriteString("  " + CounterStyle.Render(counters))
	if m.counters.Errors > 0 {
		b.WriteString(CounterErrorStyle.Render(fmt.Sprintf("  errors %d", m.counters.Errors)))
	} else {
		b.WriteString(CounterStyle.Render("  errors 0"))
	}
	b.WriteString("\n\n")
	b.WriteString("  " + m.Help.View(m.Keys))

	return b.String()
}

// channelPercent maps a servo pulse to a 0..1 bar position.
func channelPercent(v uint16) float64 {
	if v < pulseMin {
		return 0
	}
	if v > pulseMax {
		return 1
	}
	return float64(v-pulseMin) / float64(pulseMax-pulseMin)
}

// Run blocks running the monitor TUI until the user quits.
func Run(bus *ibus.Bus, sensorNames []string, source string, telemetry bool) error {
	p := tea.NewProgram(New(bus, sensorNames, source, telemetry), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
