package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/rcwire/ibuslink/internal/config"
	"github.com/rcwire/ibuslink/internal/ibus"
	"github.com/rcwire/ibuslink/internal/link"
	"github.com/rcwire/ibuslink/internal/logging"
	"github.com/rcwire/ibuslink/internal/monitor"
	"github.com/rcwire/ibuslink/internal/server"
)

// Command flags
var (
	cfgPath    string
	demoMode   bool
	portFlag   string
	listenFlag string
	noAnnounce bool
	telemetry  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: per-user config dir)")

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(decodeCmd)
}

// loadConfig reads the configuration file, falling back to the per-user
// default path when --config is not given. A missing file yields the
// built-in defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// applyLinkFlags folds command line overrides into the loaded config.
func applyLinkFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Link.Port = portFlag
	}
	if cmd.Flags().Changed("telemetry") {
		cfg.Link.Telemetry = telemetry
	}
}

// buildSource creates the byte source: the demo generator with --demo,
// otherwise the configured serial port. Returns the source and a label
// for display.
func buildSource(cfg *config.Config) (link.Source, string) {
	if demoMode {
		return link.NewDemo(cfg.Link.Telemetry), "demo"
	}
	return link.NewLink(cfg.Link.Port, cfg.Link.Baud, cfg.Link.Telemetry), cfg.Link.Port
}

// registerSensors adds the configured virtual sensors to the bus and
// returns their display names in address order.
func registerSensors(bus *ibus.Bus, cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Sensors))
	for _, def := range cfg.Sensors {
		addr := bus.AddSensor(byte(def.Type))
		if addr < len(names)+1 {
			// Sensor table is full; the remaining entries are ignored.
			logging.Warn("sensor table full, skipping sensor", zap.String("name", def.Name))
			continue
		}
		bus.SetSensorValue(addr, uint16(def.Value))
		names = append(names, def.Name)
	}
	return names
}

// monitorCmd shows the live channel and sensor state in the terminal
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Show live channel and sensor state in the terminal",
	Long: `Launch a full-screen terminal monitor for the IBus stream.

Displays all ten servo channels as live bars, the registered telemetry
sensors with their current values, and the frame counters. Telemetry
replies can be toggled at runtime with 't'.`,
	Example: `  # Monitor the configured serial port
  ibuslink monitor

  # Monitor a specific port
  ibuslink monitor --port /dev/ttyUSB1

  # Try the monitor without hardware
  ibuslink monitor --demo`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().BoolVar(&demoMode, "demo", false, "Use a synthetic traffic source instead of a serial port")
	monitorCmd.Flags().StringVar(&portFlag, "port", "", "Serial port (overrides config)")
	monitorCmd.Flags().BoolVar(&telemetry, "telemetry", false, "Answer sensor polls (overrides config)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("monitor requires a terminal; use 'ibuslink serve' for headless operation")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLinkFlags(cmd, cfg)

	src, label := buildSource(cfg)
	names := registerSensors(src.Bus(), cfg)

	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pollErr := make(chan error, 1)
	go func() {
		pollErr <- link.Run(ctx, src)
	}()

	if err := monitor.Run(src.Bus(), names, label, cfg.Link.Telemetry); err != nil {
		return fmt.Errorf("monitor error: %w", err)
	}

	cancel()
	if err := <-pollErr; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("link error: %w", err)
	}
	return nil
}

// serveCmd runs the headless link plus the dashboard server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Decode the IBus stream and serve a WebSocket dashboard",
	Long: `Run the IBus link headless and serve the live state over HTTP.

Connected WebSocket clients on /ws receive a state snapshot ten times a
second; /api/status returns a single snapshot as JSON. The server is
announced on the local network via mDNS unless disabled.`,
	Example: `  # Serve the configured serial port on the configured address
  ibuslink serve

  # Serve on a specific address without mDNS
  ibuslink serve --listen :9000 --no-announce

  # Serve synthetic traffic for dashboard development
  ibuslink serve --demo`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&demoMode, "demo", false, "Use a synthetic traffic source instead of a serial port")
	serveCmd.Flags().StringVar(&portFlag, "port", "", "Serial port (overrides config)")
	serveCmd.Flags().BoolVar(&telemetry, "telemetry", false, "Answer sensor polls (overrides config)")
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().BoolVar(&noAnnounce, "no-announce", false, "Disable mDNS announcement")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLinkFlags(cmd, cfg)
	if cmd.Flags().Changed("listen") {
		cfg.Server.Listen = listenFlag
	}
	if noAnnounce {
		cfg.Server.Announce = false
	}

	src, label := buildSource(cfg)
	names := registerSensors(src.Bus(), cfg)

	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := link.Run(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("link failed", zap.Error(err))
			stop()
		}
	}()

	logging.Info("serving IBus state", zap.String("source", label))

	srv := server.New(server.Config{
		Listen:   cfg.Server.Listen,
		Announce: cfg.Server.Announce,
	}, src.Bus(), names)

	return srv.Run(ctx)
}

// decodeCmd runs captured bytes through the decoder
var decodeCmd = &cobra.Command{
	Use:   "decode [hex bytes...]",
	Short: "Decode captured IBus bytes from arguments or stdin",
	Long: `Feed captured IBus bytes through the decoder and print the result.

Bytes are given as hex, either as arguments or as lines on stdin. Each
line of stdin is treated as a separate burst: the decoder sees a silent
gap before it, so every line starts a fresh frame attempt. Within a
line, bytes arrive back to back.

With --telemetry, sensor polls in the input are answered and the reply
bytes are printed.`,
	Example: `  # Decode a single captured frame
  ibuslink decode 20 40 db 05 dc 05 54 05 dc 05 e8 03 d0 07 d2 05 e8 03 dc 05 dc 05 dc 05 dc 05 dc 05 dc 05 da f3

  # Decode a capture file, one burst per line
  ibuslink decode < capture.txt

  # Answer the sensor polls in a capture
  ibuslink decode --telemetry < capture.txt`,
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().BoolVar(&telemetry, "telemetry", false, "Answer sensor polls found in the input")
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("telemetry") {
		cfg.Link.Telemetry = telemetry
	}

	// A synthetic clock stands in for byte arrival times: each burst is
	// preceded by a silent gap, and bytes within a burst arrive at the
	// 115200 baud byte time.
	now := time.Now()
	replies := &replyPrinter{}
	bus := ibus.New(replies,
		ibus.WithTelemetry(cfg.Link.Telemetry),
		ibus.WithClock(func() time.Time { return now }),
		ibus.WithDelay(func(time.Duration) {}),
	)
	registerSensors(bus, cfg)

	feedBurst := func(line string) error {
		data, err := parseHexBytes(line)
		if err != nil {
			return err
		}
		now = now.Add(10 * time.Millisecond)
		for _, v := range data {
			bus.ProcessByte(v, now)
			now = now.Add(87 * time.Microsecond)
		}
		replies.flush()
		return nil
	}

	if len(args) > 0 {
		if err := feedBurst(strings.Join(args, " ")); err != nil {
			return err
		}
	} else {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if err := feedBurst(line); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	printDecodeResult(bus)
	return nil
}

// parseHexBytes parses hex byte tokens. Tokens may be single bytes
// ("20", "0x40") or runs of bytes ("2040db05").
func parseHexBytes(s string) ([]byte, error) {
	var out []byte
	for _, tok := range strings.Fields(strings.ReplaceAll(s, ",", " ")) {
		tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
		if len(tok)%2 != 0 {
			tok = "0" + tok
		}
		data, err := hex.DecodeString(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q: %w", tok, err)
		}
		out = append(out, data...)
	}
	return out, nil
}

// replyPrinter collects telemetry reply bytes and prints them per burst.
type replyPrinter struct {
	buf []byte
}

func (r *replyPrinter) Write(p []byte) (int, error) {
	r.buf = append(r.buf, p...)
	return len(p), nil
}

func (r *replyPrinter) flush() {
	if len(r.buf) == 0 {
		return
	}
	fmt.Printf("reply: % x\n", r.buf)
	r.buf = r.buf[:0]
}

func printDecodeResult(bus *ibus.Bus) {
	counters := bus.Counters()

	if counters.Received > 0 {
		fmt.Println("Channels:")
		for i, v := range bus.Channels() {
			fmt.Printf("  CH%02d  %d\n", i+1, v)
		}
	}

	if sensors := bus.Sensors(); len(sensors) > 0 {
		fmt.Println("Sensors:")
		for i, sn := range sensors {
			fmt.Printf("  #%d  type 0x%02X  value %d\n", i+1, sn.Type, sn.Value)
		}
	}

	fmt.Printf("Frames: %d received, %d errors, %d polls, %d sensor replies\n",
		counters.Received, counters.Errors, counters.Polls, counters.SensorsSent)
}
