package anna

import (
	"fmt"
	"sort"
	"strings"
)

// PresetNames returns the preset names in a stable order
func PresetNames(presets map[string]float64) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Summary returns a one-line summary of the status
func (s *Status) Summary() string {
	preset := s.CurrentPreset
	if preset == "" {
		preset = "none"
	}
	return fmt.Sprintf("%.1f°C → %.1f°C, preset %s, heating %s", s.Temperature, s.TargetTemperature, preset, onOff(s.HeatingActive))
}

// FormatPresets returns one line per preset, marking the active one
func (s *Status) FormatPresets() string {
	var b strings.Builder

	b.WriteString("=== Presets ===\n")
	if len(s.Presets) == 0 {
		b.WriteString("(none)\n")
		return b.String()
	}
	for _, name := range PresetNames(s.Presets) {
		marker := " "
		if name == s.CurrentPreset {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf("%s %-12s %5.1f°C\n", marker, name, s.Presets[name]))
	}

	return b.String()
}

// FormatCompact returns a compact multi-line format suitable for terminal display
func (s *Status) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Temperature: %.1f°C (target %.1f°C)\n", s.Temperature, s.TargetTemperature))
	if s.OutdoorTemperature != nil {
		b.WriteString(fmt.Sprintf("Outdoor:     %.1f°C\n", *s.OutdoorTemperature))
	}
	b.WriteString(fmt.Sprintf("Preset:      %s\n", s.CurrentPreset))
	if s.ScheduleActive != nil {
		b.WriteString(fmt.Sprintf("Schedule:    %s\n", onOff(*s.ScheduleActive)))
	}
	b.WriteString(fmt.Sprintf("Heating:     %s\n", onOff(s.HeatingActive)))

	return b.String()
}

// FormatDetailed returns every field including the preset table and API generation
func (s *Status) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Thermostat ===\n")
	b.WriteString(fmt.Sprintf("API generation: %s\n", s.Generation))
	b.WriteString(s.FormatCompact())
	b.WriteString("\n")
	b.WriteString(s.FormatPresets())

	return b.String()
}
