package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/haanna/anna/internal/ui"
	"github.com/haanna/anna/pkg/anna"
)

func init() {
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(presetsCmd)
}

// pingCmd checks that the gateway answers
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the gateway is reachable",
	Long: `Check that the gateway is reachable and the credentials are accepted.

The gateway answers /ping with 404 when it is up; anything else is reported
as a connection failure.`,
	Example: `  anna ping --host 192.168.1.20 --password abcdefgh`,
	Args:    cobra.NoArgs,
	RunE:    runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	p := ui.NewPrinter(cmd.OutOrStdout())

	client, t, err := connect(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	start := time.Now()
	if err := client.Ping(cmd.Context()); err != nil {
		p.PrintGatewayError("Gateway unreachable", err)
		return errReported
	}

	markSeen(t)
	p.PrintSuccess("Gateway is up",
		ui.Param{Key: "Gateway", Value: t.label()},
		ui.Param{Key: "Address", Value: client.Config().BaseURL()},
		ui.Param{Key: "Round trip", Value: time.Since(start).Round(time.Millisecond).String()},
	)
	return nil
}

// statusCmd shows the thermostat state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the thermostat state",
	Long: `Show temperature, target temperature, outdoor temperature, active preset,
schedule and heating state.`,
	Example: `  # Status of the default gateway
  anna status

  # One line per value
  anna status --format compact

  # JSON output for scripting
  anna status --format json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

// statusJSON is the --format json shape of a status
type statusJSON struct {
	Gateway            string             `json:"gateway"`
	Generation         string             `json:"generation"`
	Temperature        float64            `json:"temperature"`
	TargetTemperature  float64            `json:"target_temperature"`
	OutdoorTemperature *float64           `json:"outdoor_temperature,omitempty"`
	CurrentPreset      string             `json:"current_preset"`
	Presets            map[string]float64 `json:"presets"`
	ScheduleActive     *bool              `json:"schedule_active,omitempty"`
	HeatingActive      bool               `json:"heating_active"`
}

func newStatusJSON(gateway string, s *anna.Status) statusJSON {
	return statusJSON{
		Gateway:            gateway,
		Generation:         s.Generation.String(),
		Temperature:        s.Temperature,
		TargetTemperature:  s.TargetTemperature,
		OutdoorTemperature: s.OutdoorTemperature,
		CurrentPreset:      s.CurrentPreset,
		Presets:            s.Presets,
		ScheduleActive:     s.ScheduleActive,
		HeatingActive:      s.HeatingActive,
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := ui.NewPrinter(out)

	client, t, err := connect(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	s, err := client.Status(cmd.Context())
	if err != nil {
		p.PrintGatewayError("Could not read the thermostat", err)
		return errReported
	}
	markSeen(t)

	return printStatus(out, t.label(), s, viper.GetString("format"))
}

func printStatus(out io.Writer, label string, s *anna.Status, format string) error {
	switch format {
	case "json":
		return writeJSON(out, newStatusJSON(label, s))
	case "compact":
		_, err := fmt.Fprintln(out, s.FormatCompact())
		return err
	case "detailed":
		_, err := fmt.Fprintln(out, s.FormatDetailed())
		return err
	case "text", "":
		ui.NewPrinter(out).PrintStatus(label, s)
		return nil
	default:
		return fmt.Errorf("unknown format %q (use text, compact, detailed or json)", format)
	}
}

// presetsCmd lists the presets and their setpoints
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the presets and their setpoints",
	Long: `List the presets the thermostat knows, with the setpoint of each.
The active preset is marked.`,
	Args: cobra.NoArgs,
	RunE: runPresets,
}

func runPresets(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	p := ui.NewPrinter(out)

	client, t, err := connect(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	doc, err := client.DomainObjects(cmd.Context())
	if err != nil {
		p.PrintGatewayError("Could not read the thermostat", err)
		return errReported
	}
	presets, err := anna.Presets(doc)
	if err != nil {
		p.PrintGatewayError("Could not read presets", err)
		return errReported
	}
	current, err := anna.CurrentPreset(doc)
	if err != nil && !anna.IsNotFound(err) {
		p.PrintGatewayError("Could not read the active preset", err)
		return errReported
	}
	markSeen(t)

	s := &anna.Status{Generation: anna.Detect(doc), Presets: presets, CurrentPreset: current}
	switch viper.GetString("format") {
	case "json":
		return writeJSON(out, presets)
	case "compact", "detailed":
		_, err := fmt.Fprint(out, s.FormatPresets())
		return err
	default:
		p.Println(ui.RenderPresetTable(s))
		return nil
	}
}

// parseTemperature parses and range-checks a setpoint argument
func parseTemperature(arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = fmt.Errorf("not a number")
	}
	if err != nil {
		return 0, fmt.Errorf("invalid temperature %q: %w", arg, err)
	}
	if v < anna.MinSetpoint || v > anna.MaxSetpoint {
		return 0, fmt.Errorf("temperature %s°C out of range (%s to %s°C)",
			anna.FormatSetpoint(v), anna.FormatSetpoint(anna.MinSetpoint), anna.FormatSetpoint(anna.MaxSetpoint))
	}
	return v, nil
}
