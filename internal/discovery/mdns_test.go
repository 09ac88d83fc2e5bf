package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name        string
		entry       *zeroconf.ServiceEntry
		wantNil     bool
		wantSmileID string
		wantIP      string
		wantPort    int
	}{
		{
			name: "valid gateway with IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "smile1a2b3c.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")},
				Text:     []string{"product=smile_thermo", "version=4.0.15"},
			},
			wantSmileID: "1a2b3c",
			wantIP:      "192.168.1.20",
			wantPort:    80,
		},
		{
			name: "valid gateway without trailing dot",
			entry: &zeroconf.ServiceEntry{
				HostName: "smile0f0f0f.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantSmileID: "0f0f0f",
			wantIP:      "10.0.0.5",
			wantPort:    80,
		},
		{
			name: "upper case hostname is normalized",
			entry: &zeroconf.ServiceEntry{
				HostName: "SMILE1A2B3C.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.6")},
			},
			wantSmileID: "1a2b3c",
			wantIP:      "10.0.0.6",
			wantPort:    80,
		},
		{
			name: "no port specified defaults to 80",
			entry: &zeroconf.ServiceEntry{
				HostName: "smileabcdef.local",
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantSmileID: "abcdef",
			wantIP:      "172.16.0.1",
			wantPort:    80,
		},
		{
			name: "wrong hostname pattern",
			entry: &zeroconf.ServiceEntry{
				HostName: "stretch1a2b3c.local",
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name:    "empty hostname",
			entry:   &zeroconf.ServiceEntry{AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")}},
			wantNil: true,
		},
		{
			name:    "no IP address",
			entry:   &zeroconf.ServiceEntry{HostName: "smile1a2b3c.local"},
			wantNil: true,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "smile222222.local",
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantSmileID: "222222",
			wantIP:      "fe80::1",
			wantPort:    80,
		},
		{
			name: "prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "smile333333.local",
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantSmileID: "333333",
			wantIP:      "192.168.1.50",
			wantPort:    80,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if gw != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", gw)
				}
				return
			}

			if gw == nil {
				t.Fatal("parseServiceEntry() = nil, want gateway")
			}
			if gw.SmileID != tt.wantSmileID {
				t.Errorf("gw.SmileID = %v, want %v", gw.SmileID, tt.wantSmileID)
			}
			if gw.IP != tt.wantIP {
				t.Errorf("gw.IP = %v, want %v", gw.IP, tt.wantIP)
			}
			if gw.Port != tt.wantPort {
				t.Errorf("gw.Port = %v, want %v", gw.Port, tt.wantPort)
			}
			if gw.Hostname != tt.entry.HostName {
				t.Errorf("gw.Hostname = %v, want %v", gw.Hostname, tt.entry.HostName)
			}
			if time.Since(gw.DiscoveredAt) > time.Second {
				t.Errorf("gw.DiscoveredAt is not recent: %v", gw.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	gw := NewScanner().parseServiceEntry(&zeroconf.ServiceEntry{
		HostName: "smile1a2b3c.local",
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")},
		Text:     []string{"product=smile_thermo", "version=4.0.15", "flag"},
	})
	if gw == nil {
		t.Fatal("parseServiceEntry() = nil, want gateway")
	}

	expected := map[string]string{
		"product": "smile_thermo",
		"version": "4.0.15",
		"flag":    "",
	}
	if len(gw.Metadata) != len(expected) {
		t.Errorf("gw.Metadata has %d entries, want %d", len(gw.Metadata), len(expected))
	}
	for key, want := range expected {
		if got, ok := gw.Metadata[key]; !ok || got != want {
			t.Errorf("gw.Metadata[%q] = %q (present %v), want %q", key, got, ok, want)
		}
	}
}

func TestSmilePattern(t *testing.T) {
	tests := []struct {
		hostname    string
		shouldMatch bool
		smileID     string
	}{
		{"smile1a2b3c.local", true, "1a2b3c"},
		{"smile1a2b3c.local.", true, "1a2b3c"},
		{"Smile00FF00.local", true, "00FF00"},
		{"smile1a2b3.local", false, ""},   // too short
		{"smile1a2b3c4.local", false, ""}, // too long
		{"smilezzzzzz.local", false, ""},  // not hex
		{"smile1a2b3c", false, ""},        // missing .local
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			matches := smilePattern.FindStringSubmatch(tt.hostname)

			if !tt.shouldMatch {
				if matches != nil {
					t.Errorf("smilePattern matched %q, want no match", tt.hostname)
				}
				return
			}
			if len(matches) < 2 {
				t.Fatalf("smilePattern did not match %q", tt.hostname)
			}
			if matches[1] != tt.smileID {
				t.Errorf("smilePattern matched %q with id %q, want %q", tt.hostname, matches[1], tt.smileID)
			}
		})
	}
}

// fakeBrowser replays entries into the channel like a resolver would
type fakeBrowser struct {
	entries []*zeroconf.ServiceEntry
	err     error
	service string
}

func (f *fakeBrowser) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	f.service = service
	if f.err != nil {
		return f.err
	}
	go func() {
		for _, e := range f.entries {
			select {
			case entries <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func scannerWith(b *fakeBrowser, timeout time.Duration) *Scanner {
	return &Scanner{
		Timeout:    timeout,
		newBrowser: func() (Browser, error) { return b, nil },
	}
}

func TestScanner_ScanForGateways(t *testing.T) {
	b := &fakeBrowser{entries: []*zeroconf.ServiceEntry{
		{HostName: "smile1a2b3c.local.", AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")}},
		{HostName: "printer.local.", AddrIPv4: []net.IP{net.ParseIP("192.168.1.30")}},
		{HostName: "smile1a2b3c.local.", AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")}},
		{HostName: "smile4d5e6f.local.", AddrIPv4: []net.IP{net.ParseIP("192.168.1.21")}},
	}}

	gateways, err := scannerWith(b, 200*time.Millisecond).ScanForGateways()
	if err != nil {
		t.Fatalf("ScanForGateways() error = %v", err)
	}
	if b.service != ServiceType {
		t.Errorf("browsed %q, want %q", b.service, ServiceType)
	}
	if len(gateways) != 2 {
		t.Fatalf("got %d gateways, want 2 (duplicates and non-Smile hosts dropped)", len(gateways))
	}
	if gateways[0].SmileID != "1a2b3c" || gateways[1].SmileID != "4d5e6f" {
		t.Errorf("gateways = %v, %v", gateways[0], gateways[1])
	}
}

func TestScanner_BrowseError(t *testing.T) {
	b := &fakeBrowser{err: errors.New("no multicast interface")}

	if _, err := scannerWith(b, time.Second).ScanForGateways(); err == nil {
		t.Error("ScanForGateways() error = nil, want error")
	}
}

func TestScanner_WaitForGateway(t *testing.T) {
	b := &fakeBrowser{entries: []*zeroconf.ServiceEntry{
		{HostName: "smile111111.local.", AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")}},
		{HostName: "smile4d5e6f.local.", AddrIPv4: []net.IP{net.ParseIP("192.168.1.21")}},
	}}

	start := time.Now()
	gw, err := scannerWith(b, 5*time.Second).WaitForGateway("4D5E6F")
	if err != nil {
		t.Fatalf("WaitForGateway() error = %v", err)
	}
	if gw.IP != "192.168.1.21" {
		t.Errorf("gw.IP = %v, want 192.168.1.21", gw.IP)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("WaitForGateway() did not return as soon as the gateway was found")
	}
}

func TestScanner_WaitForGateway_NotFound(t *testing.T) {
	b := &fakeBrowser{}

	if _, err := scannerWith(b, 100*time.Millisecond).WaitForGateway("abcdef"); err == nil {
		t.Error("WaitForGateway() error = nil, want not found")
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}
