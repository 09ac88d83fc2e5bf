package anna

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Current-generation domain objects: thermostat bound to a location, presets
// in a named rule, two schedule rules, an outdoor sensor on the gateway.
const currentDomainObjects = `<?xml version="1.0" encoding="UTF-8"?>
<domain_objects>
	<gateway id="gw-01"><hostname>smile1a2b3c</hostname></gateway>
	<appliance id="app-thermostat">
		<name>Anna</name>
		<type>thermostat</type>
		<location id="loc-living"/>
		<logs>
			<point_log id="pl-temperature">
				<type>temperature</type>
				<period start_date="2019-01-01T10:00:00+01:00" end_date="2019-01-01T10:00:00+01:00">
					<measurement log_date="2019-01-01T10:00:00+01:00">20.43</measurement>
				</period>
			</point_log>
			<point_log id="pl-setpoint">
				<type>thermostat</type>
				<period start_date="2019-01-01T10:00:00+01:00" end_date="2019-01-01T10:00:00+01:00">
					<measurement log_date="2019-01-01T10:00:00+01:00">21.00</measurement>
				</period>
			</point_log>
		</logs>
	</appliance>
	<appliance id="app-heater">
		<name>OpenTherm</name>
		<type>heater_central</type>
		<logs>
			<point_log id="pl-chs">
				<type>central_heating_state</type>
				<period><measurement>on</measurement></period>
			</point_log>
		</logs>
	</appliance>
	<appliance id="app-gateway">
		<type>gateway</type>
		<logs>
			<point_log id="pl-outdoor">
				<type>outdoor_temperature</type>
				<period><measurement>7.50</measurement></period>
			</point_log>
		</logs>
	</appliance>
	<location id="loc-living">
		<name>Living room</name>
		<type>building</type>
		<preset>home</preset>
		<actuator_functionalities>
			<thermostat_functionality id="tf-living">
				<setpoint>21</setpoint>
			</thermostat_functionality>
		</actuator_functionalities>
	</location>
	<module id="mod-anna">
		<services>
			<thermo_meter id="svc-temperature" log_type="temperature">
				<functionalities><point_log id="pl-temperature"/></functionalities>
			</thermo_meter>
			<thermostat id="svc-setpoint" log_type="thermostat">
				<functionalities><point_log id="pl-setpoint"/></functionalities>
			</thermostat>
		</services>
	</module>
	<module id="mod-weather">
		<services>
			<thermo_meter id="svc-outdoor" log_type="outdoor_temperature">
				<functionalities><point_log id="pl-outdoor"/></functionalities>
			</thermo_meter>
		</services>
	</module>
	<rule id="rule-presets">
		<name>Thermostat presets</name>
		<template tag="zone_setpoint_and_state_based_on_preset"/>
		<active>true</active>
		<directives>
			<directive preset="home"><then setpoint="20.5"/></directive>
			<directive preset="away"><then setpoint="16"/></directive>
			<directive preset="asleep"><then setpoint="15.5"/></directive>
			<directive preset="vacation"><then setpoint="15"/></directive>
			<directive preset="no_frost"><then setpoint="10"/></directive>
		</directives>
	</rule>
	<rule id="rule-winter">
		<name>Winter</name>
		<template tag="zone_preset_based_on_time_and_presence_with_override"/>
		<active>true</active>
	</rule>
	<rule id="rule-summer">
		<name>Summer</name>
		<template tag="zone_preset_based_on_time_and_presence_with_override"/>
		<active>false</active>
	</rule>
</domain_objects>`

// Legacy domain objects: no location on the thermostat, one rule per preset.
const legacyDomainObjects = `<?xml version="1.0" encoding="UTF-8"?>
<domain_objects>
	<appliance id="app-legacy-thermostat">
		<name>Anna</name>
		<type>thermostat</type>
		<logs>
			<point_log id="pl-temperature">
				<type>temperature</type>
				<period><measurement>19.80</measurement></period>
			</point_log>
			<point_log id="pl-setpoint">
				<type>thermostat</type>
				<period><measurement>20.00</measurement></period>
			</point_log>
		</logs>
	</appliance>
	<appliance id="app-heater">
		<type>heater_central</type>
		<logs>
			<point_log id="pl-boiler">
				<type>boiler_state</type>
				<period><measurement>off</measurement></period>
			</point_log>
		</logs>
	</appliance>
	<module id="mod-anna">
		<services>
			<thermo_meter log_type="temperature">
				<functionalities><point_log id="pl-temperature"/></functionalities>
			</thermo_meter>
			<thermostat log_type="thermostat">
				<functionalities><point_log id="pl-setpoint"/></functionalities>
			</thermostat>
			<schedule_state log_type="schedule_state">
				<measurement>on</measurement>
			</schedule_state>
		</services>
	</module>
	<rule id="rule-home">
		<name>Home</name>
		<active>true</active>
		<directives><when time="[07:00,22:00)"><then icon="home" temperature="20.0"/></when></directives>
	</rule>
	<rule id="rule-away">
		<name>Away</name>
		<active>false</active>
		<directives><when time="[22:00,07:00)"><then icon="away" temperature="17.0"/></when></directives>
	</rule>
</domain_objects>`

const locationsDocument = `<?xml version="1.0" encoding="UTF-8"?>
<locations>
	<location id="loc-other">
		<name>Attic</name>
		<type>room</type>
		<preset>away</preset>
	</location>
	<location id="loc-living">
		<name>Living room</name>
		<type>building</type>
		<preset>home</preset>
	</location>
</locations>`

func mustParse(t *testing.T, xml string) *Document {
	t.Helper()
	doc, err := Parse([]byte(xml))
	require.NoError(t, err)
	return doc
}

func currentDoc(t *testing.T) *Document { return mustParse(t, currentDomainObjects) }

func legacyDoc(t *testing.T) *Document { return mustParse(t, legacyDomainObjects) }

// legacyWithoutActiveRule returns the legacy document with every rule inactive
func legacyWithoutActiveRule(t *testing.T) *Document {
	return mustParse(t, strings.ReplaceAll(legacyDomainObjects, "<active>true</active>", "<active>false</active>"))
}

// staticLocations is a LocationsFetcher returning a fixed document
type staticLocations struct {
	xml   string
	calls int
}

func (s *staticLocations) FetchLocations(ctx context.Context) (*Document, error) {
	s.calls++
	return Parse([]byte(s.xml))
}

// newTestClient starts an httptest server and returns a Client pointed at it
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(configFor(t, server.URL)), server
}

func configFor(t *testing.T, rawURL string) Config {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return Config{Username: DefaultUsername, Password: "abcdefgh", Host: host, Port: port}
}
