package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Gateway is an SDK gateway found on the local network
type Gateway struct {
	// Instance is the advertised service instance name (e.g., "checkout-sandbox")
	Instance string

	// Host is the mDNS hostname (e.g., "build-box.local.")
	Host string

	// IP is the gateway address, IPv4 when one was advertised
	IP string

	// Port is the websocket port
	Port int

	// Path is the websocket endpoint path, from the "path" TXT record
	Path string

	// Metadata contains the remaining TXT record data
	// Common fields: "version=v1.2.0", "env=sandbox"
	Metadata map[string]string

	// DiscoveredAt is when the gateway was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable description of the gateway
func (g *Gateway) String() string {
	return fmt.Sprintf("SDK gateway %s (%s) at %s", g.Instance, g.Host, g.URL())
}

// URL returns the websocket URL the SDK loader dials
func (g *Gateway) URL() string {
	path := g.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + net.JoinHostPort(g.IP, strconv.Itoa(g.Port)) + path
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (g *Gateway) GetMetadata(key string) string {
	if g.Metadata == nil {
		return ""
	}
	return g.Metadata[key]
}
