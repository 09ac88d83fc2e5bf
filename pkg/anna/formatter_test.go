package anna

import (
	"strings"
	"testing"
)

func TestStatus_Formatting(t *testing.T) {
	outdoor := 7.5
	schedule := true
	s := &Status{
		Generation:         Current,
		Temperature:        20.43,
		TargetTemperature:  21,
		OutdoorTemperature: &outdoor,
		CurrentPreset:      "home",
		Presets:            map[string]float64{"home": 20.5, "away": 16},
		ScheduleActive:     &schedule,
	}

	if got, want := s.Summary(), "20.4°C → 21.0°C, preset home, heating off"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	presets := s.FormatPresets()
	lines := strings.Split(strings.TrimSpace(presets), "\n")
	if len(lines) != 3 {
		t.Fatalf("FormatPresets() has %d lines, want 3:\n%s", len(lines), presets)
	}
	if !strings.HasPrefix(lines[1], "  away") {
		t.Errorf("presets not sorted, line 1 = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "* home") {
		t.Errorf("active preset not marked, line 2 = %q", lines[2])
	}

	compact := s.FormatCompact()
	for _, want := range []string{"Outdoor:     7.5°C", "Schedule:    on", "Heating:     off"} {
		if !strings.Contains(compact, want) {
			t.Errorf("FormatCompact() missing %q:\n%s", want, compact)
		}
	}

	if !strings.Contains(s.FormatDetailed(), "API generation: current") {
		t.Errorf("FormatDetailed() missing generation")
	}
}

func TestStatus_FormatCompact_NoOutdoor(t *testing.T) {
	s := &Status{Generation: Legacy}
	if strings.Contains(s.FormatCompact(), "Outdoor") {
		t.Error("FormatCompact() should omit a missing outdoor sensor")
	}
	if strings.Contains(s.FormatCompact(), "Schedule") {
		t.Error("FormatCompact() should omit a missing schedule")
	}
	if got := s.Summary(); !strings.Contains(got, "preset none") {
		t.Errorf("Summary() = %q, want preset none", got)
	}
}
