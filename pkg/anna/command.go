package anna

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ContentTypeXML is the content type of every command body
const ContentTypeXML = "text/xml"

// Request is a write operation ready to be submitted to the gateway.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// String returns "METHOD path" for logging
func (r *Request) String() string {
	return r.Method + " " + r.Path
}

// LocationsFetcher supplies the /core/locations document. *Client implements it.
type LocationsFetcher interface {
	FetchLocations(ctx context.Context) (*Document, error)
}

type locationsBody struct {
	XMLName  xml.Name     `xml:"locations"`
	Location locationBody `xml:"location"`
}

type locationBody struct {
	ID     string `xml:"id,attr"`
	Name   string `xml:"name"`
	Type   string `xml:"type"`
	Preset string `xml:"preset"`
}

type rulesBody struct {
	XMLName xml.Name `xml:"rules"`
	Rule    ruleBody `xml:"rule"`
}

type ruleBody struct {
	ID     string `xml:"id,attr"`
	Active bool   `xml:"active"`
}

type thermostatBody struct {
	XMLName  xml.Name `xml:"thermostat_functionality"`
	Setpoint string   `xml:"setpoint"`
}

func matrixPath(base, id string) string {
	return base + ";id=" + url.PathEscape(id)
}

func putXML(path string, v any) (*Request, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return &Request{
		Method:      http.MethodPut,
		Path:        path,
		ContentType: ContentTypeXML,
		Body:        body,
	}, nil
}

// LocationPresetRequest builds the current-generation preset write. The
// gateway requires the location name and type to be echoed back.
func LocationPresetRequest(locationID, name, locationType, preset string) (*Request, error) {
	return putXML(matrixPath(LocationsPath, locationID), locationsBody{
		Location: locationBody{ID: locationID, Name: name, Type: locationType, Preset: preset},
	})
}

// RulePresetRequest builds the legacy preset write, activating one rule.
func RulePresetRequest(ruleID string) (*Request, error) {
	return putXML(RulesPath, rulesBody{Rule: ruleBody{ID: ruleID, Active: true}})
}

// BuildSetPresetRequest resolves the write for switching to preset. Current
// gateways need a fresh /core/locations read through locations.
func BuildSetPresetRequest(ctx context.Context, doc *Document, locations LocationsFetcher, preset string) (*Request, error) {
	if Detect(doc) == Legacy {
		ruleID, err := legacyPresetRuleID(doc, preset)
		if err != nil {
			return nil, err
		}
		return RulePresetRequest(ruleID)
	}

	locationID, err := doc.ThermostatLocationID()
	if err != nil {
		return nil, err
	}

	locDoc, err := locations.FetchLocations(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := locDoc.Location(locationID)
	if err != nil {
		return nil, err
	}
	name, ok := childText(loc, "name")
	if !ok {
		return nil, NewNotFoundError("location %q has no name", locationID)
	}
	locationType, ok := childText(loc, "type")
	if !ok {
		return nil, NewNotFoundError("location %q has no type", locationID)
	}

	return LocationPresetRequest(locationID, name, locationType, preset)
}

func legacyPresetRuleID(doc *Document, preset string) (string, error) {
	for _, rule := range doc.Rules() {
		for _, then := range rule.FindElements("directives/when/then") {
			if then.SelectAttrValue("icon", "") != preset {
				continue
			}
			if id := rule.SelectAttrValue("id", ""); id != "" {
				return id, nil
			}
		}
	}
	return "", NewPresetNotFoundError(preset)
}

// ThermostatEndpoint returns the path setpoint writes go to.
func ThermostatEndpoint(doc *Document) (string, error) {
	if Detect(doc) == Legacy {
		app, err := doc.Appliance(ApplianceThermostat)
		if err != nil {
			return "", err
		}
		id := app.SelectAttrValue("id", "")
		if id == "" {
			return "", NewNotFoundError("thermostat appliance has no id")
		}
		return matrixPath(AppliancesPath, id) + "/thermostat", nil
	}

	locationID, err := doc.ThermostatLocationID()
	if err != nil {
		return "", err
	}
	loc, err := doc.Location(locationID)
	if err != nil {
		return "", err
	}
	fn := loc.FindElement("actuator_functionalities/thermostat_functionality")
	if fn == nil {
		return "", NewNotFoundError("location %q has no thermostat functionality", locationID)
	}
	fnID := fn.SelectAttrValue("id", "")
	if fnID == "" {
		return "", NewNotFoundError("thermostat functionality of location %q has no id", locationID)
	}
	return matrixPath(matrixPath(LocationsPath, locationID)+"/thermostat", fnID), nil
}

// Setpoint range accepted by the Anna thermostat, in °C.
const (
	MinSetpoint = 4.0
	MaxSetpoint = 30.0
)

// FormatSetpoint renders a temperature the way it is sent: shortest decimal
// form, no rounding.
func FormatSetpoint(temperature float64) string {
	return strconv.FormatFloat(temperature, 'f', -1, 64)
}

// BuildSetTemperatureRequest builds the setpoint write. The caller is
// responsible for range-checking temperature.
func BuildSetTemperatureRequest(doc *Document, temperature float64) (*Request, error) {
	path, err := ThermostatEndpoint(doc)
	if err != nil {
		return nil, err
	}
	return putXML(path, thermostatBody{Setpoint: FormatSetpoint(temperature)})
}
