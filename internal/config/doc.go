// Package config manages the anna CLI's gateway registry.
//
// The registry is a YAML file holding named gateways (host, port, username
// and what mDNS reported about them) plus a few preferences. Commands accept
// --gateway NAME instead of repeating --host and --port.
//
// # Configuration File Location
//
//   - $ANNA_CONFIG_DIR/config.yaml when ANNA_CONFIG_DIR is set
//   - Linux: $XDG_CONFIG_HOME/anna/config.yaml or $HOME/.config/anna/config.yaml
//   - macOS: $HOME/.config/anna/config.yaml
//   - Windows: %LOCALAPPDATA%\anna\config.yaml
//
// # Security
//
// Gateway passwords are never written to the registry.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := registry.AddGateway("living", &config.Gateway{Host: "192.168.1.20"}); err != nil {
//	    log.Fatal(err)
//	}
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
package config
