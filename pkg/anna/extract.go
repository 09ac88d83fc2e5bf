package anna

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// PresetsRuleName names the current-generation rule holding preset setpoints
	PresetsRuleName = "Thermostat presets"

	// ScheduleTemplateTag tags the current-generation weekly schedule rules
	ScheduleTemplateTag = "zone_preset_based_on_time_and_presence_with_override"
)

// Presets returns the preset name to setpoint mapping.
func Presets(doc *Document) (map[string]float64, error) {
	if Detect(doc) == Legacy {
		return legacyPresets(doc)
	}

	rules := doc.RulesByName(PresetsRuleName)
	if len(rules) == 0 {
		return nil, NewRuleNotFoundError(fmt.Sprintf("no rule named %q", PresetsRuleName))
	}

	presets := make(map[string]float64)
	directives := rules[0].SelectElement("directives")
	if directives == nil {
		return presets, nil
	}

	for _, directive := range directives.ChildElements() {
		name := directive.SelectAttrValue("preset", "")
		then := directive.SelectElement("then")
		if name == "" || then == nil {
			continue
		}
		setpoint, err := parseFloat(then.SelectAttrValue("setpoint", ""), "setpoint of preset "+name)
		if err != nil {
			return nil, err
		}
		presets[name] = setpoint
	}

	return presets, nil
}

func legacyPresets(doc *Document) (map[string]float64, error) {
	presets := make(map[string]float64)
	for _, then := range doc.Root().FindElements("rule/directives/when/then") {
		icon := then.SelectAttrValue("icon", "")
		if icon == "" {
			continue
		}
		temperature, err := parseFloat(then.SelectAttrValue("temperature", ""), "temperature of preset "+icon)
		if err != nil {
			return nil, err
		}
		presets[icon] = temperature
	}
	return presets, nil
}

// ScheduleActive reports whether a weekly schedule drives the thermostat.
func ScheduleActive(doc *Document) (bool, error) {
	if Detect(doc) == Legacy {
		state, err := doc.ScheduleState()
		if err != nil {
			return false, err
		}
		return strings.TrimSpace(state) == "on", nil
	}

	rules := doc.RulesByTemplateTag(ScheduleTemplateTag)
	if len(rules) == 0 {
		return false, NewRuleNotFoundError(fmt.Sprintf("no rule with template tag %q", ScheduleTemplateTag))
	}

	for _, rule := range rules {
		if active, ok := childText(rule, "active"); ok && active == "true" {
			return true, nil
		}
	}
	return false, nil
}

// HeatingActive reports whether the central heater is currently heating.
func HeatingActive(doc *Document) (bool, error) {
	logType := LogTypeCentralHeatingState
	if Detect(doc) == Legacy {
		logType = LogTypeBoilerState
	}

	state, err := doc.ApplianceMeasurement(ApplianceHeaterCentral, logType)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(state) == "on", nil
}

// CurrentPreset returns the active preset name. On legacy gateways an empty
// string means no preset rule is active.
func CurrentPreset(doc *Document) (string, error) {
	if Detect(doc) == Legacy {
		for _, rule := range doc.Rules() {
			if active, ok := childText(rule, "active"); !ok || active != "true" {
				continue
			}
			then := rule.FindElement("directives/when/then")
			if then == nil {
				return "", NewNotFoundError("active rule %q has no directive", rule.SelectAttrValue("id", ""))
			}
			return then.SelectAttrValue("icon", ""), nil
		}
		return "", nil
	}

	locationID, err := doc.ThermostatLocationID()
	if err != nil {
		return "", err
	}
	loc, err := doc.Location(locationID)
	if err != nil {
		return "", err
	}
	preset, ok := childText(loc, "preset")
	if !ok {
		return "", NewNotFoundError("location %q has no preset", locationID)
	}
	return preset, nil
}

// Temperature returns the measured room temperature.
func Temperature(doc *Document) (float64, error) {
	return pointLogValue(doc, LogTypeTemperature)
}

// TargetTemperature returns the thermostat setpoint.
func TargetTemperature(doc *Document) (float64, error) {
	return pointLogValue(doc, LogTypeThermostat)
}

// OutdoorTemperature returns the outdoor sensor reading.
func OutdoorTemperature(doc *Document) (float64, error) {
	return pointLogValue(doc, LogTypeOutdoorTemperature)
}

func pointLogValue(doc *Document, logType string) (float64, error) {
	id, err := doc.PointLogID(logType)
	if err != nil {
		return 0, err
	}
	text, err := doc.Measurement(id)
	if err != nil {
		return 0, err
	}
	return parseFloat(text, logType+" measurement")
}

func parseFloat(text, what string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, NewParseError(fmt.Sprintf("%s is not numeric: %q", what, text), err)
	}
	return v, nil
}

// Status is a snapshot of everything readable from one domain-objects document.
type Status struct {
	Generation         Generation
	Temperature        float64
	TargetTemperature  float64
	OutdoorTemperature *float64 // nil when the gateway has no outdoor sensor
	CurrentPreset      string
	Presets            map[string]float64
	ScheduleActive     *bool // nil when no schedule rule exists
	HeatingActive      bool
}

// ReadStatus runs every extraction against doc. Any failure other than a
// missing outdoor sensor or a missing schedule is returned.
func ReadStatus(doc *Document) (*Status, error) {
	var err error
	s := &Status{Generation: Detect(doc)}

	if s.Temperature, err = Temperature(doc); err != nil {
		return nil, fmt.Errorf("temperature: %w", err)
	}
	if s.TargetTemperature, err = TargetTemperature(doc); err != nil {
		return nil, fmt.Errorf("target temperature: %w", err)
	}

	outdoor, err := OutdoorTemperature(doc)
	switch {
	case err == nil:
		s.OutdoorTemperature = &outdoor
	case !IsNotFound(err):
		return nil, fmt.Errorf("outdoor temperature: %w", err)
	}

	if s.CurrentPreset, err = CurrentPreset(doc); err != nil {
		return nil, fmt.Errorf("current preset: %w", err)
	}
	if s.Presets, err = Presets(doc); err != nil {
		return nil, fmt.Errorf("presets: %w", err)
	}
	schedule, err := ScheduleActive(doc)
	switch {
	case err == nil:
		s.ScheduleActive = &schedule
	case !IsNotFound(err) && !IsRuleNotFound(err):
		return nil, fmt.Errorf("schedule: %w", err)
	}
	if s.HeatingActive, err = HeatingActive(doc); err != nil {
		return nil, fmt.Errorf("heating: %w", err)
	}

	return s, nil
}
