package server

import (
	"fmt"
	"os"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/rcwire/ibuslink/internal/logging"
)

const (
	// ServiceType is the mDNS service type the dashboard server
	// advertises so monitors on the LAN can find it without knowing
	// the address.
	ServiceType = "_ibuslink._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."
)

// announce registers the dashboard server on mDNS. The returned function
// withdraws the registration.
func announce(port int) (func(), error) {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "ibuslink"
	}

	server, err := zeroconf.Register(
		fmt.Sprintf("ibuslink-%s", host),
		ServiceType,
		ServiceDomain,
		port,
		[]string{"version=1"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("server: mDNS register: %w", err)
	}

	logging.Info("announced on mDNS",
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return server.Shutdown, nil
}
