package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/haanna/anna/internal/logging"
	"github.com/haanna/anna/internal/ui"
	"github.com/haanna/anna/internal/verify"
	"github.com/haanna/anna/pkg/anna"
)

// Write command flags
var (
	noVerify bool
	retries  int
)

func init() {
	for _, cmd := range []*cobra.Command{setPresetCmd, setTemperatureCmd} {
		cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip reading the change back from the gateway")
		cmd.Flags().IntVar(&retries, "retries", verify.DefaultOptions().MaxRetries, "Number of read-back retries")
		rootCmd.AddCommand(cmd)
	}
}

// setPresetCmd switches the active preset
var setPresetCmd = &cobra.Command{
	Use:   "set-preset <preset>",
	Short: "Switch the thermostat to a preset",
	Long: `Switch the thermostat to a preset such as home, away, asleep, vacation
or no_frost. Run 'anna presets' for the names your thermostat knows; they are
case-sensitive.

On current firmware the preset is set on the thermostat's location; on legacy
firmware the rule carrying the preset is activated.`,
	Example: `  anna set-preset away
  anna set-preset home --gateway living --no-verify`,
	Args: cobra.ExactArgs(1),
	RunE: runSetPreset,
}

func runSetPreset(cmd *cobra.Command, args []string) error {
	preset := args[0]
	client, t, err := connect(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	return runWrite(cmd, client, t, writeCommand{
		title:   "Set preset",
		command: "anna set-preset " + preset,
		params:  []ui.Param{{Key: "Preset", Value: preset}},
		build: func(ctx context.Context, doc *anna.Document) (*anna.Request, error) {
			warnUnknownPreset(doc, preset)
			return anna.BuildSetPresetRequest(ctx, doc, client, preset)
		},
		checks: func(*anna.Request) []verify.Check {
			return []verify.Check{verify.Preset(preset)}
		},
		done: "Preset changed",
	})
}

// warnUnknownPreset logs when preset is missing from the gateway's preset
// table. Legacy gateways reject unknown names while building the request.
func warnUnknownPreset(doc *anna.Document, preset string) {
	presets, err := anna.Presets(doc)
	if err != nil {
		logging.Warn("Could not read presets", zap.String("preset", preset), zap.Error(err))
		return
	}
	if _, ok := presets[preset]; !ok {
		logging.Warn("Preset not in the gateway's preset table", zap.String("preset", preset),
			zap.Strings("known", anna.PresetNames(presets)))
	}
}

// setTemperatureCmd writes a new target temperature
var setTemperatureCmd = &cobra.Command{
	Use:   "set-temperature <celsius>",
	Short: "Set the target temperature",
	Long: `Set the target temperature in °C. The value is sent as given, without
rounding; the thermostat accepts 4 to 30 °C.

With a schedule active the thermostat returns to the scheduled setpoint at the
next switch point.`,
	Example: `  anna set-temperature 20.5
  anna set-temperature 18 --retries 10`,
	Args: cobra.ExactArgs(1),
	RunE: runSetTemperature,
}

func runSetTemperature(cmd *cobra.Command, args []string) error {
	temperature, err := parseTemperature(args[0])
	if err != nil {
		return err
	}
	client, t, err := connect(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	value := anna.FormatSetpoint(temperature) + "°C"
	return runWrite(cmd, client, t, writeCommand{
		title:   "Set temperature",
		command: "anna set-temperature " + args[0],
		params:  []ui.Param{{Key: "Target", Value: value}},
		build: func(ctx context.Context, doc *anna.Document) (*anna.Request, error) {
			return anna.BuildSetTemperatureRequest(doc, temperature)
		},
		checks: func(req *anna.Request) []verify.Check {
			return []verify.Check{verify.Endpoint(req), verify.Temperature(temperature)}
		},
		done: "Target temperature changed",
	})
}

// writeCommand describes one read, send, confirm sequence
type writeCommand struct {
	title   string
	command string
	params  []ui.Param
	build   func(ctx context.Context, doc *anna.Document) (*anna.Request, error)
	checks  func(req *anna.Request) []verify.Check
	done    string
}

const (
	stepRead = iota + 1
	stepSend
	stepConfirm
)

func runWrite(cmd *cobra.Command, client *anna.Client, t *target, w writeCommand) error {
	ctx := cmd.Context()
	p := ui.NewPrinter(cmd.OutOrStdout())

	p.PrintHeader(w.title, w.command, append([]ui.Param{{Key: "Gateway", Value: t.label()}}, w.params...)...)

	names := []string{"Read thermostat", "Send command", "Confirm change"}
	if noVerify {
		names = names[:2]
	}
	steps := ui.NewSteps(names...)

	fail := func(step int, title string, err error) error {
		steps.Fail(step, "")
		p.PrintStep(steps, step)
		p.Newline()
		p.PrintGatewayError(title, err)
		return errReported
	}

	// Read
	doc, err := client.DomainObjects(ctx)
	if err != nil {
		return fail(stepRead, "Could not read the thermostat", err)
	}
	generation := anna.Detect(doc)
	steps.Complete(stepRead, generation.String()+" API")
	p.PrintStep(steps, stepRead)

	// Send
	req, err := w.build(ctx, doc)
	if err != nil {
		return fail(stepSend, "Could not build the command", err)
	}
	body, err := client.Submit(ctx, req)
	logging.LogCommand(t.label(), req.String(), err)
	if err != nil {
		return fail(stepSend, "Command rejected", err)
	}
	logging.LogResponseBody("Command response", body)
	steps.Complete(stepSend, req.Path)
	p.PrintStep(steps, stepSend)

	details := append([]ui.Param{}, w.params...)
	details = append(details, ui.Param{Key: "API", Value: generation.String()})

	if noVerify {
		markSeen(t)
		p.Newline()
		p.PrintSuccess(w.done+" (not verified)", details...)
		return nil
	}

	// Confirm
	opts := verify.DefaultOptions()
	opts.MaxRetries = retries
	verifyCtx, cancel := context.WithTimeout(ctx, seconds(loadRegistry().Preferences.VerifyTimeout, 30*time.Second))
	defer cancel()

	result := verify.Run(verifyCtx, client, t.label(), opts, w.checks(req)...)
	if !result.Success {
		steps.Fail(stepConfirm, fmt.Sprintf("%d attempts", result.Attempts))
		p.PrintStep(steps, stepConfirm)
		p.Newline()
		p.PrintWarning("Command accepted but not confirmed", append(details,
			ui.Param{Key: "Reason", Value: anna.ShortMessage(result.Error)})...)
		return errReported
	}
	steps.Complete(stepConfirm, fmt.Sprintf("%d attempt(s)", result.Attempts))
	p.PrintStep(steps, stepConfirm)
	markSeen(t)

	if result.Status != nil {
		details = append(details,
			ui.Param{Key: "Temperature", Value: fmt.Sprintf("%.1f°C", result.Status.Temperature)},
			ui.Param{Key: "Setpoint", Value: fmt.Sprintf("%.1f°C", result.Status.TargetTemperature)},
		)
	}
	p.Newline()
	p.PrintSuccess(w.done, details...)
	return nil
}
