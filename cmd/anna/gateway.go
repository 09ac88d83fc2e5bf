package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/haanna/anna/internal/config"
	"github.com/haanna/anna/internal/discovery"
	"github.com/haanna/anna/internal/ui"
	"github.com/haanna/anna/pkg/anna"
)

// Discovery and registry flags
var (
	scanTimeout int
	addSmileID  string
	addNoCheck  bool
	removeYes   bool
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(gatewayCmd)
	gatewayCmd.AddCommand(gatewayAddCmd, gatewayListCmd, gatewayRemoveCmd, gatewayDefaultCmd)
}

// scanCmd discovers gateways on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Smile gateways on the network",
	Long: `Scan for Plugwise Smile gateways using mDNS/DNS-SD discovery.

Gateways advertise _plugwise._tcp with a hostname of the form smileXXXXXX.local.
The password is not advertised; it is the Smile ID printed on the gateway label.`,
	Example: `  # Scan for 10 seconds (default)
  anna scan

  # Quick 3-second scan
  anna scan --timeout 3`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default from preferences, 10)")
}

func scanDuration() time.Duration {
	if scanTimeout > 0 {
		return time.Duration(scanTimeout) * time.Second
	}
	return seconds(loadRegistry().Preferences.DiscoverTimeout, discovery.DefaultScanTimeout)
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := ui.NewPrinter(out)
	timeout := scanDuration()

	scanner := discovery.NewScanner()
	scanner.Timeout = timeout

	if viper.GetString("format") != "json" {
		p.Printf("Scanning for Smile gateways (timeout: %s)...\n\n", timeout)
	}

	gateways, err := scanner.ScanForGatewaysWithContext(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if viper.GetString("format") == "json" {
		return writeJSON(out, gateways)
	}

	if len(gateways) == 0 {
		p.PrintError("No gateways found", fmt.Errorf("nothing answered on %s", discovery.ServiceType), []string{
			"Ensure the gateway is powered on and connected to your network",
			"Check that this computer is on the same network segment",
			"mDNS may be blocked by the router or a firewall",
			"Try increasing --timeout, or use --host with the gateway's IP address",
		})
		return errReported
	}

	p.Printf("Found %d gateway(s):\n\n", len(gateways))
	for i, gw := range gateways {
		p.Printf("%d. %s\n", i+1, gw.Hostname)
		p.Printf("   Smile ID: %s\n", gw.SmileID)
		p.Printf("   Address:  %s\n", gw.BaseURL())
		if product := gw.Product(); product != "" {
			p.Printf("   Product:  %s %s\n", product, gw.Version())
		}
		if !gw.IsThermostat() {
			p.Println(ui.StepNoteStyle.Render("   " + ui.WarningMarker + " not an Anna thermostat gateway"))
		}
		p.Newline()
	}

	p.Println("Use 'anna gateway add <name> --smile-id <id>' to save a gateway")
	return nil
}

// gatewayCmd groups the saved gateway commands
var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Manage saved gateways",
	Long: `Save gateways under a nickname so commands can use --gateway <name>
instead of --host. Passwords are never saved.`,
}

var gatewayAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Save a gateway",
	Long: `Save a gateway under a nickname.

The address comes from --host, or from mDNS discovery: with --smile-id the
matching gateway is looked up; without it a scan must find exactly one.
Unless --no-check is given the connection is tested first.`,
	Example: `  anna gateway add living --host 192.168.1.20
  anna gateway add living --smile-id 1a2b3c
  anna gateway add living`,
	Args: cobra.ExactArgs(1),
	RunE: runGatewayAdd,
}

func init() {
	gatewayAddCmd.Flags().StringVar(&addSmileID, "smile-id", "", "Find the gateway by Smile ID via mDNS")
	gatewayAddCmd.Flags().BoolVar(&addNoCheck, "no-check", false, "Save without testing the connection")
	gatewayRemoveCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Do not ask for confirmation")
}

// gatewayFromFlags builds the registry entry from --host or discovery
func gatewayFromFlags(cmd *cobra.Command, p *ui.Printer) (*config.Gateway, error) {
	if host := viper.GetString("host"); host != "" {
		return &config.Gateway{
			Host:     host,
			Port:     viper.GetInt("port"),
			Username: viper.GetString("username"),
		}, nil
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = scanDuration()

	var found *discovery.Gateway
	if addSmileID != "" {
		p.Printf("Looking for Smile %s...\n", addSmileID)
		gw, err := scanner.WaitForGatewayWithContext(cmd.Context(), addSmileID)
		if err != nil {
			return nil, fmt.Errorf("smile %s not found: %w", addSmileID, err)
		}
		found = gw
	} else {
		p.Println("No --host given, scanning...")
		gateways, err := scanner.ScanForGatewaysWithContext(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		switch len(gateways) {
		case 0:
			return nil, fmt.Errorf("no gateways found; use --host to add one manually")
		case 1:
			found = gateways[0]
		default:
			for _, gw := range gateways {
				p.Printf("  %s\n", gw)
			}
			return nil, fmt.Errorf("found %d gateways; use --smile-id to pick one", len(gateways))
		}
	}

	return &config.Gateway{
		Host:     found.IP,
		Port:     found.Port,
		Username: anna.DefaultUsername,
		SmileID:  found.SmileID,
		Product:  found.Product(),
		Firmware: found.Version(),
	}, nil
}

func runGatewayAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := config.ValidateName(name); err != nil {
		return err
	}
	p := ui.NewPrinter(cmd.OutOrStdout())

	reg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load gateways: %w", err)
	}

	gw, err := gatewayFromFlags(cmd, p)
	if err != nil {
		return err
	}

	if !addNoCheck {
		t := &target{name: name, cfg: anna.Config{
			Host:     gw.Host,
			Port:     gw.Port,
			Username: gw.Username,
			Password: viper.GetString("password"),
			Timeout:  viper.GetDuration("timeout"),
		}}
		if err := ensurePassword(t, cmd.ErrOrStderr()); err != nil {
			return err
		}
		if err := anna.NewClient(t.cfg).Ping(cmd.Context()); err != nil {
			p.PrintGatewayError("Gateway not saved", err)
			return errReported
		}
		gw.LastSeen = time.Now()
	}

	if err := reg.AddGateway(name, gw); err != nil {
		return err
	}
	if err := reg.Save(); err != nil {
		return fmt.Errorf("failed to save gateways: %w", err)
	}

	details := []ui.Param{
		{Key: "Name", Value: name},
		{Key: "Host", Value: gw.Host},
	}
	if gw.SmileID != "" {
		details = append(details, ui.Param{Key: "Smile ID", Value: gw.SmileID})
	}
	if reg.Preferences.DefaultGateway == name {
		details = append(details, ui.Param{Key: "Default", Value: "yes"})
	}
	p.PrintSuccess("Gateway saved", details...)
	return nil
}

var gatewayListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved gateways",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load gateways: %w", err)
		}
		out := cmd.OutOrStdout()
		if viper.GetString("format") == "json" {
			return writeJSON(out, reg.Gateways)
		}

		p := ui.NewPrinter(out)
		names := reg.Names()
		if len(names) == 0 {
			p.Println("No saved gateways. Use 'anna scan' and 'anna gateway add'.")
			return nil
		}
		for _, name := range names {
			p.Println(formatGatewayLine(name, reg.Gateways[name], name == reg.Preferences.DefaultGateway))
		}
		return nil
	},
}

func formatGatewayLine(name string, gw *config.Gateway, isDefault bool) string {
	marker := " "
	if isDefault {
		marker = "*"
	}
	addr := gw.Host
	if gw.Port != 0 && gw.Port != anna.DefaultPort {
		addr += ":" + strconv.Itoa(gw.Port)
	}
	line := fmt.Sprintf("%s %-12s %-22s", marker, name, addr)
	if gw.SmileID != "" {
		line += " smile " + gw.SmileID
	}
	if !gw.LastSeen.IsZero() {
		line += "  seen " + gw.LastSeen.Format("2006-01-02 15:04")
	}
	return line
}

var gatewayRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a saved gateway",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		reg, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load gateways: %w", err)
		}
		if reg.GetGateway(name) == nil {
			return fmt.Errorf("unknown gateway %q", name)
		}
		if !removeYes && !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove gateway %q?", name)) {
			return nil
		}
		reg.RemoveGateway(name)
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save gateways: %w", err)
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Gateway removed", ui.Param{Key: "Name", Value: name})
		return nil
	},
}

var gatewayDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Make a saved gateway the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load gateways: %w", err)
		}
		if err := reg.SetDefault(args[0]); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save gateways: %w", err)
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Default gateway set", ui.Param{Key: "Name", Value: args[0]})
		return nil
	},
}
