package anna

import (
	"fmt"
	"math"
)

// setpointTolerance absorbs the gateway rounding reported setpoints to two decimals
const setpointTolerance = 0.005

// Mismatch describes a value that did not read back as written
type Mismatch struct {
	Field    string
	Expected string
	Actual   string
}

// String implements fmt.Stringer
func (m *Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", m.Field, m.Expected, m.Actual)
}

// ConfirmTemperature compares the setpoint in a freshly fetched doc with
// the value just written. A nil Mismatch means it was applied.
func ConfirmTemperature(doc *Document, want float64) (*Mismatch, error) {
	got, err := TargetTemperature(doc)
	if err != nil {
		return nil, err
	}
	if math.Abs(got-want) <= setpointTolerance {
		return nil, nil
	}
	return &Mismatch{
		Field:    "target temperature",
		Expected: FormatSetpoint(want),
		Actual:   FormatSetpoint(got),
	}, nil
}

// ConfirmPreset compares the active preset in doc with want.
func ConfirmPreset(doc *Document, want string) (*Mismatch, error) {
	got, err := CurrentPreset(doc)
	if err != nil {
		return nil, err
	}
	if got == want {
		return nil, nil
	}
	return &Mismatch{Field: "preset", Expected: want, Actual: got}, nil
}

// ConfirmEndpoint checks that req still targets the thermostat endpoint
// resolved from doc, i.e. that the zone did not move between build and read.
func ConfirmEndpoint(doc *Document, req *Request) (*Mismatch, error) {
	path, err := ThermostatEndpoint(doc)
	if err != nil {
		return nil, err
	}
	if path == req.Path {
		return nil, nil
	}
	return &Mismatch{Field: "endpoint", Expected: req.Path, Actual: path}, nil
}
