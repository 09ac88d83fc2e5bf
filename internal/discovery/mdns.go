package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/haanna/anna/internal/logging"
)

const (
	// ServiceType is the mDNS service type Smile gateways advertise
	ServiceType = "_plugwise._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for gateway discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default HTTP port of a Smile gateway
	DefaultPort = 80
)

// smilePattern matches Smile gateway hostnames (e.g., "smile1a2b3c.local")
var smilePattern = regexp.MustCompile(`^(?i:smile)([0-9a-fA-F]{6})\.local\.?$`)

// Browser is the subset of zeroconf.Resolver the scanner uses
type Browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// Scanner handles mDNS gateway discovery
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration

	// newBrowser creates the mDNS resolver; replaced in tests
	newBrowser func() (Browser, error)
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		newBrowser: func() (Browser, error) {
			return zeroconf.NewResolver(nil)
		},
	}
}

// ScanForGateways discovers all Smile gateways on the local network
func (s *Scanner) ScanForGateways() ([]*Gateway, error) {
	return s.ScanForGatewaysWithContext(context.Background())
}

// ScanForGatewaysWithContext discovers gateways until the timeout or ctx expires
func (s *Scanner) ScanForGatewaysWithContext(ctx context.Context) ([]*Gateway, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		gateways = make([]*Gateway, 0)
		seen     = make(map[string]bool)
	)

	err := s.browse(ctx, func(gw *Gateway) bool {
		mu.Lock()
		defer mu.Unlock()
		if !seen[gw.SmileID] {
			seen[gw.SmileID] = true
			gateways = append(gateways, gw)
			logging.LogDiscovery(gw.Hostname, gw.IP, gw.Port)
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return gateways, nil
}

// WaitForGateway waits for the gateway with the given Smile ID
func (s *Scanner) WaitForGateway(smileID string) (*Gateway, error) {
	return s.WaitForGatewayWithContext(context.Background(), smileID)
}

// WaitForGatewayWithContext waits for a specific gateway with a custom context
func (s *Scanner) WaitForGatewayWithContext(ctx context.Context, smileID string) (*Gateway, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	found := make(chan *Gateway, 1)
	err := s.browse(ctx, func(gw *Gateway) bool {
		if !strings.EqualFold(gw.SmileID, smileID) {
			return false
		}
		select {
		case found <- gw:
		default:
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	select {
	case gw := <-found:
		return gw, nil
	default:
		return nil, fmt.Errorf("gateway with Smile ID %s not found within timeout", smileID)
	}
}

// browse feeds parsed gateways to fn until ctx is done or fn returns true.
// It returns once browsing has stopped.
func (s *Scanner) browse(ctx context.Context, fn func(*Gateway) bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	browser, err := s.newBrowser()
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				gw := s.parseServiceEntry(entry)
				if gw != nil && fn(gw) {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := browser.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		cancel()
		<-done
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done
	return nil
}

// parseServiceEntry converts a zeroconf service entry to a Gateway.
// Returns nil if the entry is not a Smile gateway.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Gateway {
	if entry == nil || entry.HostName == "" {
		return nil
	}
	hostname := entry.HostName

	matches := smilePattern.FindStringSubmatch(hostname)
	if len(matches) < 2 {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are "key=value" or a bare key
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Gateway{
		SmileID:      strings.ToLower(matches[1]),
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
