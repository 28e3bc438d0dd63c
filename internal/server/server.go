package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rcwire/ibuslink/internal/ibus"
	"github.com/rcwire/ibuslink/internal/logging"
)

// broadcastPeriod is how often a snapshot is pushed to connected
// dashboards. Faster than the eye needs, far slower than the frame rate.
const broadcastPeriod = 100 * time.Millisecond

// Config holds the dashboard server configuration.
type Config struct {
	Listen   string // HTTP listen address, e.g. ":8642"
	Announce bool   // advertise via mDNS
}

// SensorInfo is a sensor entry in a snapshot, enriched with the display
// name from the configuration.
type SensorInfo struct {
	Address int    `json:"address"`
	Name    string `json:"name,omitempty"`
	Type    byte   `json:"type"`
	Value   uint16 `json:"value"`
}

// Snapshot is the JSON structure sent to all WebSocket clients and
// returned by /api/status.
type Snapshot struct {
	Channels []uint16      `json:"channels"`
	Sensors  []SensorInfo  `json:"sensors"`
	Counters ibus.Counters `json:"counters"`
	Stamp    int64         `json:"stamp"` // Unix ms
}

// Server broadcasts live bus state to WebSocket dashboard clients.
type Server struct {
	cfg         Config
	bus         *ibus.Bus
	sensorNames []string // display names, index 0 = address 1

	clientsMu sync.RWMutex
	clients   map[*wsClient]struct{}
}

// New creates a dashboard server for the given bus. sensorNames carries
// the configured display names in address order and may be nil.
func New(cfg Config, bus *ibus.Bus, sensorNames []string) *Server {
	return &Server{
		cfg:         cfg,
		bus:         bus,
		sensorNames: sensorNames,
		clients:     make(map[*wsClient]struct{}),
	}
}

// snapshot assembles the current bus state.
func (s *Server) snapshot() Snapshot {
	sensors := s.bus.Sensors()
	infos := make([]SensorInfo, len(sensors))
	for i, sn := range sensors {
		infos[i] = SensorInfo{
			Address: i + 1,
			Type:    sn.Type,
			Value:   sn.Value,
		}
		if i < len(s.sensorNames) {
			infos[i].Name = s.sensorNames[i]
		}
	}
	return Snapshot{
		Channels: s.bus.Channels(),
		Sensors:  infos,
		Counters: s.bus.Counters(),
		Stamp:    time.Now().UnixMilli(),
	}
}

// Run serves HTTP until the context is cancelled. It blocks.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/status", s.handleStatus)

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Listen, err)
	}

	if s.cfg.Announce {
		port := ln.Addr().(*net.TCPAddr).Port
		stop, err := announce(port)
		if err != nil {
			// The dashboard still works without mDNS; keep going.
			logging.Warn("mDNS announce failed", zap.Error(err))
		} else {
			defer stop()
		}
	}

	httpSrv := &http.Server{Handler: mux}

	go s.broadcastLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logging.Info("dashboard server listening", zap.String("addr", ln.Addr().String()))

	if err := httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// broadcastLoop pushes snapshots to all connected clients on a fixed
// period.
func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(broadcastPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		data, err := json.Marshal(s.snapshot())
		if err != nil {
			continue
		}

		s.clientsMu.RLock()
		for c := range s.clients {
			select {
			case c.send <- data:
			default:
				// Slow consumer: drop the frame rather than stall
				// the broadcast for everyone else.
			}
		}
		s.clientsMu.RUnlock()
	}
}

// handleStatus returns one snapshot as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		logging.Error("failed to encode status", zap.Error(err))
	}
}
