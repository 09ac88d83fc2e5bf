package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/haanna/anna/internal/config"
	"github.com/haanna/anna/internal/logging"
	"github.com/haanna/anna/pkg/anna"
)

// target is a resolved gateway connection
type target struct {
	name string // saved gateway nickname, empty when --host was given
	cfg  anna.Config
}

// label names the gateway in headers and logs
func (t *target) label() string {
	if t.name != "" {
		return t.name
	}
	return t.cfg.Host
}

// resolveTarget merges flags and environment with the saved gateway.
// An explicit host wins over the registry; port and username from the
// registry apply only when not set explicitly.
func resolveTarget(v *viper.Viper, reg *config.Registry) (*target, error) {
	t := &target{
		cfg: anna.Config{
			Host:     v.GetString("host"),
			Port:     v.GetInt("port"),
			Username: v.GetString("username"),
			Password: v.GetString("password"),
			Timeout:  v.GetDuration("timeout"),
		},
	}
	if t.cfg.Host != "" {
		return t, nil
	}

	if reg == nil {
		reg = config.NewRegistry()
	}
	name, gw, err := reg.Resolve(v.GetString("gateway"))
	if err != nil {
		return nil, fmt.Errorf("%w; use --host, ANNA_HOST or 'anna gateway add'", err)
	}

	t.name = name
	t.cfg.Host = gw.Host
	if !v.IsSet("port") && gw.Port != 0 {
		t.cfg.Port = gw.Port
	}
	if !v.IsSet("username") && gw.Username != "" {
		t.cfg.Username = gw.Username
	}
	return t, nil
}

// passwordPrompt reads a password without echo. Replaced in tests.
var passwordPrompt = func(out io.Writer, host string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password for %s: use --password or ANNA_PASSWORD", host)
	}
	fmt.Fprintf(out, "Password (Smile ID) for %s: ", host)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func ensurePassword(t *target, out io.Writer) error {
	if t.cfg.Password != "" {
		return nil
	}
	pw, err := passwordPrompt(out, t.cfg.Host)
	if err != nil {
		return err
	}
	if pw == "" {
		return fmt.Errorf("empty password")
	}
	t.cfg.Password = pw
	return nil
}

// loadRegistry returns the saved gateways, or an empty registry when the
// file cannot be read.
func loadRegistry() *config.Registry {
	reg, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("Could not load gateway registry", zap.Error(err))
		return config.NewRegistry()
	}
	return reg
}

// connect resolves the gateway and builds a client for it
func connect(out io.Writer) (*anna.Client, *target, error) {
	t, err := resolveTarget(viper.GetViper(), loadRegistry())
	if err != nil {
		return nil, nil, err
	}
	if err := ensurePassword(t, out); err != nil {
		return nil, nil, err
	}

	client := anna.NewClient(t.cfg, anna.WithLogger(logging.GetLogger()))
	return client, t, nil
}

// markSeen records a successful exchange with a saved gateway
func markSeen(t *target) {
	if t.name == "" {
		return
	}
	reg, err := config.LoadRegistry()
	if err != nil {
		return
	}
	reg.UpdateGatewayLastSeen(t.name)
	if err := reg.Save(); err != nil {
		logging.Debug("Could not update last seen", zap.String("gateway", t.name), zap.Error(err))
	}
}
