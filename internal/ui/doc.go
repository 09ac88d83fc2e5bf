// Package ui provides terminal UI components for the anna CLI.
//
// Components are rendered with Lipgloss and follow a "print once" pattern;
// the interactive dashboard lives in package watch.
//
//   - Header: command banner showing the operation and its parameters
//   - Steps: read / send / confirm step list of a write command
//   - Result: success, warning and failure boxes with troubleshooting tips
//   - Status card: a thermostat snapshot
//
// Commands print through a Printer:
//
//	p := ui.NewPrinter(cmd.OutOrStdout())
//	p.PrintHeader("Set preset", "anna set-preset away",
//	    ui.Param{Key: "Gateway", Value: "192.168.1.20"})
//	p.PrintSuccess("Preset changed", ui.Param{Key: "Preset", Value: "away"})
//
// Logging is controlled separately by ANNA_LOG_LEVEL and goes to stderr, so
// it never interleaves with this output.
package ui
