package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CurrentVersion is the registry file format version
const CurrentVersion = 1

// Registry represents the entire user configuration file.
// It stores named gateways and application preferences.
type Registry struct {
	Version     int                 `yaml:"version"`
	Gateways    map[string]*Gateway `yaml:"gateways,omitempty"` // Keyed by nickname
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Gateway holds the connection details of one Anna gateway.
// The password (Smile ID) is never stored.
type Gateway struct {
	Host     string    `yaml:"host" json:"host"`
	Port     int       `yaml:"port,omitempty" json:"port,omitempty"`
	Username string    `yaml:"username,omitempty" json:"username,omitempty"`
	SmileID  string    `yaml:"smile_id,omitempty" json:"smile_id,omitempty"`   // Hostname suffix, when found by mDNS
	Product  string    `yaml:"product,omitempty" json:"product,omitempty"`     // Advertised product (e.g., "smile_thermo")
	Firmware string    `yaml:"firmware,omitempty" json:"firmware,omitempty"`   // Advertised firmware version
	LastSeen time.Time `yaml:"last_seen,omitempty" json:"last_seen,omitempty"` // Last successful connection
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultGateway  string `yaml:"default_gateway,omitempty"` // Used when --gateway and --host are absent
	DiscoverTimeout int    `yaml:"discover_timeout"`          // mDNS discovery timeout in seconds
	VerifyTimeout   int    `yaml:"verify_timeout"`            // Seconds to wait for a write to read back
	PollInterval    int    `yaml:"poll_interval"`             // Seconds between refreshes in watch
}

func defaultPreferences() *Preferences {
	return &Preferences{
		DiscoverTimeout: 10,
		VerifyTimeout:   30,
		PollInterval:    30,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Gateways:    make(map[string]*Gateway),
		Preferences: defaultPreferences(),
	}
}

// ValidateName checks a gateway nickname
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("gateway name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\n/") {
		return fmt.Errorf("gateway name %q cannot contain whitespace or '/'", name)
	}
	return nil
}

// GetGateway retrieves a gateway by nickname.
// Returns nil if the gateway doesn't exist in the registry.
func (r *Registry) GetGateway(name string) *Gateway {
	return r.Gateways[name]
}

// AddGateway stores gw under name, replacing any existing entry.
// The first gateway added becomes the default.
func (r *Registry) AddGateway(name string, gw *Gateway) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if gw == nil || gw.Host == "" {
		return fmt.Errorf("gateway %q has no host", name)
	}
	if r.Gateways == nil {
		r.Gateways = make(map[string]*Gateway)
	}
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}

	r.Gateways[name] = gw
	if r.Preferences.DefaultGateway == "" {
		r.Preferences.DefaultGateway = name
	}
	return nil
}

// RemoveGateway deletes a gateway. It reports whether the gateway existed.
// Removing the default gateway clears the default.
func (r *Registry) RemoveGateway(name string) bool {
	if _, ok := r.Gateways[name]; !ok {
		return false
	}
	delete(r.Gateways, name)
	if r.Preferences != nil && r.Preferences.DefaultGateway == name {
		r.Preferences.DefaultGateway = ""
	}
	return true
}

// SetDefault makes name the default gateway
func (r *Registry) SetDefault(name string) error {
	if r.GetGateway(name) == nil {
		return fmt.Errorf("unknown gateway %q", name)
	}
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	r.Preferences.DefaultGateway = name
	return nil
}

// Resolve returns the named gateway, or the default when name is empty.
func (r *Registry) Resolve(name string) (string, *Gateway, error) {
	if name == "" && r.Preferences != nil {
		name = r.Preferences.DefaultGateway
	}
	if name == "" {
		return "", nil, fmt.Errorf("no gateway given and no default gateway configured")
	}
	gw := r.GetGateway(name)
	if gw == nil {
		return "", nil, fmt.Errorf("unknown gateway %q (see 'anna gateway list')", name)
	}
	return name, gw, nil
}

// Names returns the gateway nicknames in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Gateways))
	for name := range r.Gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateGatewayLastSeen records a successful connection
func (r *Registry) UpdateGatewayLastSeen(name string) {
	if gw := r.GetGateway(name); gw != nil {
		gw.LastSeen = time.Now()
	}
}
