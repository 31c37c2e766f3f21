package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Endpoint represents a messaging endpoint discovered on the network
type Endpoint struct {
	// Instance is the advertised instance name (e.g., "octanews-simulator")
	Instance string

	// Hostname is the mDNS hostname (e.g., "devbox.local.")
	Hostname string

	// IP is the endpoint address, IPv4 preferred
	IP string

	// Port is the listening port
	Port int

	// Path is the messaging path from the "path" TXT record
	Path string

	// Scheme is "ws" or "wss" from the "scheme" TXT record
	Scheme string

	// Metadata contains all TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the endpoint
func (e *Endpoint) String() string {
	return fmt.Sprintf("%s (%s) at %s", e.Instance, e.Hostname, e.URL())
}

// URL returns the WebSocket URL of the endpoint
func (e *Endpoint) URL() string {
	return fmt.Sprintf("%s://%s%s", e.Scheme, net.JoinHostPort(e.IP, strconv.Itoa(e.Port)), e.Path)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
