package ui

import (
	"fmt"
	"strings"

	"github.com/haanna/anna/pkg/anna"
)

// RenderStatusCard renders a thermostat snapshot as a bordered card.
// title is usually the gateway name or host.
func RenderStatusCard(title string, s *anna.Status, width int) string {
	width = ClampWidth(width)

	lines := []string{
		HeaderTitleStyle.UnsetPaddingLeft().Render(strings.ToUpper(title)) +
			"  " + StepPendingStyle.Render(s.Generation.String()+" API"),
		"",
		TemperatureStyle.Render(fmt.Sprintf("%.1f°C", s.Temperature)) +
			StepPendingStyle.Render(fmt.Sprintf("  →  target %.1f°C", s.TargetTemperature)),
	}

	if s.OutdoorTemperature != nil {
		lines = append(lines, IdleStyle.Render(fmt.Sprintf("Outdoor %.1f°C", *s.OutdoorTemperature)))
	}
	lines = append(lines, "")

	preset := s.CurrentPreset
	if preset == "" {
		preset = "none"
	}
	schedule := "none"
	if s.ScheduleActive != nil {
		schedule = onOff(*s.ScheduleActive)
	}
	lines = append(lines,
		cardRow("Preset", ActivePresetStyle.Render(preset)),
		cardRow("Schedule", schedule),
		cardRow("Heating", heatingLabel(s.HeatingActive)),
	)

	return CardStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderPresetTable renders the preset setpoints, highlighting the active one
func RenderPresetTable(s *anna.Status) string {
	names := anna.PresetNames(s.Presets)
	if len(names) == 0 {
		return StepPendingStyle.Render("  (no presets)")
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		row := fmt.Sprintf("  %-12s %5.1f°C", name, s.Presets[name])
		if name == s.CurrentPreset {
			lines = append(lines, ActivePresetStyle.Render(row+"  "+StepMarkerRunning))
			continue
		}
		lines = append(lines, ResultValueStyle.Render(row))
	}
	return strings.Join(lines, "\n")
}

func cardRow(key, value string) string {
	return ResultKeyStyle.Width(10).Render(key) + value
}

func onOff(b bool) string {
	if b {
		return StepCompleteStyle.Render("on")
	}
	return StepPendingStyle.Render("off")
}

func heatingLabel(active bool) string {
	if active {
		return HeatingStyle.Render(HeatingMarker + " heating")
	}
	return IdleStyle.Render("idle")
}
