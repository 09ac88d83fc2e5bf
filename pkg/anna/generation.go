package anna

// Generation identifies which of the two gateway API shapes a document uses.
type Generation int

const (
	// Legacy gateways keep presets in per-preset rules and have no zone locations.
	Legacy Generation = iota
	// Current gateways attach the thermostat to a location carrying the preset.
	Current
)

// String returns "legacy" or "current"
func (g Generation) String() string {
	if g == Current {
		return "current"
	}
	return "legacy"
}

// Detect classifies a document. It is Current iff some thermostat appliance
// has a <location> child; a document with no thermostat appliance at all is
// Legacy.
func Detect(doc *Document) Generation {
	if doc.locatedThermostat() == nil {
		return Legacy
	}
	return Current
}
