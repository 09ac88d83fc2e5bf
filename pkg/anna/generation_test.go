package anna

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want Generation
	}{
		{"current", currentDomainObjects, Current},
		{"legacy", legacyDomainObjects, Legacy},
		{
			name: "no thermostat appliance",
			xml:  `<domain_objects><appliance><type>heater_central</type></appliance></domain_objects>`,
			want: Legacy,
		},
		{
			name: "location on another appliance only",
			xml: `<domain_objects>
				<appliance><type>heater_central</type><location id="l1"/></appliance>
				<appliance><type>thermostat</type></appliance>
			</domain_objects>`,
			want: Legacy,
		},
		{
			name: "located thermostat after an unlocated one",
			xml: `<domain_objects>
				<appliance id="a0"><type>thermostat</type></appliance>
				<appliance id="a1"><type>thermostat</type><location id="L1"/></appliance>
			</domain_objects>`,
			want: Current,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.xml)
			assert.Equal(t, tt.want, Detect(doc))
			assert.Equal(t, Detect(doc), Detect(doc), "detection must be stable")
		})
	}
}

func TestGeneration_String(t *testing.T) {
	assert.Equal(t, "legacy", Legacy.String())
	assert.Equal(t, "current", Current.String())
}

func TestDetect_MultipleThermostats(t *testing.T) {
	doc := mustParse(t, `<domain_objects>
		<appliance id="a0"><type>thermostat</type></appliance>
		<appliance id="a1"><type>thermostat</type><location id="L1"/></appliance>
		<location id="L1"><name>Living</name><type>building</type><preset>home</preset></location>
	</domain_objects>`)

	assert.Equal(t, Current, Detect(doc))

	id, err := doc.ThermostatLocationID()
	assert.NoError(t, err)
	assert.Equal(t, "L1", id)

	preset, err := CurrentPreset(doc)
	assert.NoError(t, err)
	assert.Equal(t, "home", preset)
}
