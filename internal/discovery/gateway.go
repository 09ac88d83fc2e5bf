package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// ProductThermostat is the TXT "product" value of an Anna (Smile Thermo) gateway
const ProductThermostat = "smile_thermo"

// Gateway represents a Smile gateway discovered on the network
type Gateway struct {
	// SmileID is the hex suffix of the hostname (e.g., "1a2b3c")
	SmileID string `json:"smile_id"`

	// Hostname is the mDNS hostname (e.g., "smile1a2b3c.local.")
	Hostname string `json:"hostname"`

	// IP is the IPv4 address, or IPv6 when no IPv4 address was advertised
	IP string `json:"ip"`

	// Port is the HTTP port (typically 80)
	Port int `json:"port"`

	// Metadata contains the mDNS TXT record data,
	// e.g. "product=smile_thermo", "version=4.0.15"
	Metadata map[string]string `json:"metadata,omitempty"`

	// DiscoveredAt is when the gateway was discovered
	DiscoveredAt time.Time `json:"discovered_at"`
}

// String returns a human-readable string representation of the gateway
func (g *Gateway) String() string {
	return fmt.Sprintf("Smile %s (%s) at %s", g.SmileID, g.Hostname, net.JoinHostPort(g.IP, strconv.Itoa(g.Port)))
}

// BaseURL returns the HTTP base URL for the gateway
func (g *Gateway) BaseURL() string {
	return "http://" + net.JoinHostPort(g.IP, strconv.Itoa(g.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (g *Gateway) GetMetadata(key string) string {
	if g.Metadata == nil {
		return ""
	}
	return g.Metadata[key]
}

// Product returns the advertised product name
func (g *Gateway) Product() string {
	return g.GetMetadata("product")
}

// Version returns the advertised firmware version
func (g *Gateway) Version() string {
	return g.GetMetadata("version")
}

// IsThermostat reports whether the gateway is an Anna. Gateways that do not
// advertise a product are assumed to be.
func (g *Gateway) IsThermostat() bool {
	p := g.Product()
	return p == "" || p == ProductThermostat
}
