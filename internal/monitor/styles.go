package monitor

import "github.com/charmbracelet/lipgloss"

// Color palette for the monitor UI
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - live values
	ErrorColor   = lipgloss.Color("#FF5555") // Red - error counters
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

var (
	// TitleStyle is for the top bar.
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	// ChannelLabelStyle is for the "CH01" row labels.
	ChannelLabelStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Width(5)

	// ChannelValueStyle is for the numeric channel value.
	ChannelValueStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Width(7).
				Align(lipgloss.Right)

	// SensorNameStyle is for sensor display names.
	SensorNameStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// SensorValueStyle is for sensor values.
	SensorValueStyle = lipgloss.NewStyle().
				Foreground(SuccessColor)

	// CounterStyle is for the diagnostic counters footer.
	CounterStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// CounterErrorStyle highlights a non-zero error counter.
	CounterErrorStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// TelemetryOnStyle marks the telemetry responder as active.
	TelemetryOnStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	// TelemetryOffStyle marks the telemetry responder as inactive.
	TelemetryOffStyle = lipgloss.NewStyle().
				Foreground(MutedColor)
)
