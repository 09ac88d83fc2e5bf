package anna

import (
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// Appliance types and point-log types the extraction layer asks for.
const (
	ApplianceThermostat    = "thermostat"
	ApplianceHeaterCentral = "heater_central"

	LogTypeTemperature         = "temperature"
	LogTypeThermostat          = "thermostat"
	LogTypeOutdoorTemperature  = "outdoor_temperature"
	LogTypeCentralHeatingState = "central_heating_state"
	LogTypeBoilerState         = "boiler_state"
)

// Document is a parsed gateway XML response. It is never modified after
// Parse returns, so it may be shared between goroutines.
type Document struct {
	tree *etree.Document
	root *etree.Element
}

// Parse reads an XML response body into a Document.
func Parse(data []byte) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, NewParseError("failed to parse gateway XML", err)
	}

	root := tree.Root()
	if root == nil {
		return nil, NewParseError("gateway XML has no root element", nil)
	}

	return &Document{tree: tree, root: root}, nil
}

// Root returns the document element (e.g. <domain_objects> or <locations>).
func (d *Document) Root() *etree.Element {
	return d.root
}

// Appliances returns every appliance whose <type> is applianceType.
func (d *Document) Appliances(applianceType string) []*etree.Element {
	var matches []*etree.Element
	for _, app := range d.root.SelectElements("appliance") {
		if text, ok := childText(app, "type"); ok && text == applianceType {
			matches = append(matches, app)
		}
	}
	return matches
}

// Appliance returns the first appliance of the given type.
func (d *Document) Appliance(applianceType string) (*etree.Element, error) {
	apps := d.Appliances(applianceType)
	if len(apps) == 0 {
		return nil, NewNotFoundError("no %s appliance in document", applianceType)
	}
	return apps[0], nil
}

// Locations returns all top-level location elements.
func (d *Document) Locations() []*etree.Element {
	return d.root.SelectElements("location")
}

// Location returns the location with the given id attribute.
func (d *Document) Location(id string) (*etree.Element, error) {
	for _, loc := range d.Locations() {
		if loc.SelectAttrValue("id", "") == id {
			return loc, nil
		}
	}
	return nil, NewNotFoundError("no location with id %q", id)
}

// Rules returns all top-level rule elements.
func (d *Document) Rules() []*etree.Element {
	return d.root.SelectElements("rule")
}

// RuleByID returns the rule with the given id attribute.
func (d *Document) RuleByID(id string) (*etree.Element, error) {
	for _, rule := range d.Rules() {
		if rule.SelectAttrValue("id", "") == id {
			return rule, nil
		}
	}
	return nil, NewNotFoundError("no rule with id %q", id)
}

// RulesByName returns the rules whose <name> equals name.
func (d *Document) RulesByName(name string) []*etree.Element {
	var matches []*etree.Element
	for _, rule := range d.Rules() {
		if text, ok := childText(rule, "name"); ok && text == name {
			matches = append(matches, rule)
		}
	}
	return matches
}

// RulesByTemplateTag returns the rules whose <template tag="..."> equals tag.
// Rules without a template are skipped.
func (d *Document) RulesByTemplateTag(tag string) []*etree.Element {
	var matches []*etree.Element
	for _, rule := range d.Rules() {
		tmpl := rule.SelectElement("template")
		if tmpl != nil && tmpl.SelectAttrValue("tag", "") == tag {
			matches = append(matches, rule)
		}
	}
	return matches
}

// PointLogID resolves a log type (e.g. "temperature") to the id of the point
// log referenced by the module service advertising that log_type. The
// resolution must be unambiguous.
func (d *Document) PointLogID(logType string) (string, error) {
	var ids []string
	for _, module := range d.root.SelectElements("module") {
		services := module.SelectElement("services")
		if services == nil {
			continue
		}
		for _, svc := range services.ChildElements() {
			if svc.SelectAttrValue("log_type", "") != logType {
				continue
			}
			ref := svc.FindElement("functionalities/point_log")
			if ref == nil {
				continue
			}
			id := ref.SelectAttrValue("id", "")
			if id != "" && !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}

	switch len(ids) {
	case 0:
		return "", NewNotFoundError("no point log for log type %q", logType)
	case 1:
		return ids[0], nil
	default:
		return "", NewNotFoundError("log type %q resolves to %d point logs", logType, len(ids))
	}
}

// Measurement returns the current-period measurement text of the point log
// with the given id. The point log may live under any top-level element's
// <logs>, but exactly one must exist.
func (d *Document) Measurement(pointLogID string) (string, error) {
	var found []*etree.Element
	for _, owner := range d.root.ChildElements() {
		logs := owner.SelectElement("logs")
		if logs == nil {
			continue
		}
		for _, pl := range logs.SelectElements("point_log") {
			if pl.SelectAttrValue("id", "") == pointLogID {
				found = append(found, pl)
			}
		}
	}

	switch len(found) {
	case 0:
		return "", NewNotFoundError("no point log with id %q", pointLogID)
	case 1:
		return periodMeasurement(found[0])
	default:
		return "", NewNotFoundError("point log id %q is not unique (%d matches)", pointLogID, len(found))
	}
}

// ApplianceMeasurement returns the measurement of the point log of type
// logType under the first appliance of applianceType.
func (d *Document) ApplianceMeasurement(applianceType, logType string) (string, error) {
	app, err := d.Appliance(applianceType)
	if err != nil {
		return "", err
	}

	logs := app.SelectElement("logs")
	if logs != nil {
		for _, pl := range logs.SelectElements("point_log") {
			if text, ok := childText(pl, "type"); ok && text == logType {
				return periodMeasurement(pl)
			}
		}
	}
	return "", NewNotFoundError("no %s point log on %s appliance", logType, applianceType)
}

// ScheduleState returns the legacy module/services/schedule_state measurement.
func (d *Document) ScheduleState() (string, error) {
	m := d.root.FindElement("module/services/schedule_state/measurement")
	if m == nil {
		return "", NewNotFoundError("no schedule_state measurement in document")
	}
	return m.Text(), nil
}

// ThermostatLocationID returns the id of the location the first located
// thermostat appliance points at. Only current-generation documents have one.
func (d *Document) ThermostatLocationID() (string, error) {
	app := d.locatedThermostat()
	if app == nil {
		if len(d.Appliances(ApplianceThermostat)) == 0 {
			return "", NewNotFoundError("no %s appliance in document", ApplianceThermostat)
		}
		return "", NewNotFoundError("thermostat appliance has no location")
	}
	id := app.SelectElement("location").SelectAttrValue("id", "")
	if id == "" {
		return "", NewNotFoundError("thermostat location has no id")
	}
	return id, nil
}

// locatedThermostat returns the first thermostat appliance with a <location>
// child, or nil.
func (d *Document) locatedThermostat() *etree.Element {
	for _, app := range d.Appliances(ApplianceThermostat) {
		if app.SelectElement("location") != nil {
			return app
		}
	}
	return nil
}

func periodMeasurement(pointLog *etree.Element) (string, error) {
	m := pointLog.FindElement("period/measurement")
	if m == nil {
		return "", NewNotFoundError("point log %q has no measurement", pointLog.SelectAttrValue("id", ""))
	}
	return m.Text(), nil
}

func childText(e *etree.Element, tag string) (string, bool) {
	c := e.SelectElement(tag)
	if c == nil {
		return "", false
	}
	return strings.TrimSpace(c.Text()), true
}
