package block

import (
	"fmt"
	"strings"

	"github.com/daedaleanai/uvmgen/doc"
)

var rootKeys = []string{"DUT", "dut", "block"}

func parseStandard(content string) (Config, []string) {
	var warnings []string

	v, err := doc.Decode([]byte(content))
	if err != nil {
		return Config{}, append(warnings, fmt.Sprintf("Block document is not valid YAML: %v", err))
	}
	root, ok := doc.AsMap(v)
	if !ok {
		return Config{}, append(warnings, "Block document is not a mapping")
	}

	dut := doc.NewMap()
	if value, ok := root.First(rootKeys...); ok {
		if m, ok := doc.AsMap(value); ok {
			dut = m
		}
	}
	if dut.Len() == 0 {
		warnings = append(warnings, fmt.Sprintf("Block document has none of the root keys %s", strings.Join(rootKeys, ", ")))
	}

	modelValue, _ := dut.First("reference_model", "model")
	interfacesValue, _ := dut.Get("interfaces")
	clockValue, _ := dut.Get("clock")
	resetValue, _ := dut.Get("reset")

	config := Config{
		Name:       dut.String("module_name", "name"),
		Clock:      standardClock(clockValue),
		Reset:      standardReset(resetValue),
		Model:      standardModel(modelValue),
		Interfaces: standardInterfaces(interfacesValue),
	}
	return config, warnings
}

func standardClock(v interface{}) Clock {
	m, ok := doc.AsMap(v)
	if !ok {
		return Clock{Name: doc.Scalar(v)}
	}
	return Clock{
		Name:      m.String("name", "signal"),
		Frequency: m.String("frequency"),
	}
}

func standardReset(v interface{}) Reset {
	if v == nil {
		v = doc.NewMap()
	}
	m, ok := doc.AsMap(v)
	if !ok {
		name := doc.Scalar(v)
		return Reset{Name: name, ActiveLow: strings.Contains(strings.ToLower(name), "n")}
	}

	reset := Reset{Name: m.String("name", "signal")}
	if activeLow, ok := m.Get("active_low"); ok {
		reset.ActiveLow = doc.Bool(activeLow)
	} else if polarity, ok := m.Get("polarity"); ok {
		reset.ActiveLow = doc.Scalar(polarity) == "active_low"
	} else {
		reset.ActiveLow = true
	}
	return reset
}

func standardModel(v interface{}) Model {
	m, ok := doc.AsMap(v)
	if !ok {
		return Model{Type: DefaultModelType, Path: doc.Scalar(v), Arguments: []string{}}
	}

	model := Model{
		Type:          m.String("type"),
		Path:          m.String("path"),
		Executable:    m.String("executable"),
		CommandFormat: m.String("command_format"),
		Entry:         m.String("entry"),
	}
	if model.Type == "" {
		model.Type = DefaultModelType
	}
	arguments, _ := m.Get("arguments")
	model.Arguments = doc.Strings(arguments)
	return model
}

func standardInterfaces(v interface{}) []Interface {
	var interfaces []Interface

	if m, ok := doc.AsMap(v); ok {
		m.Range(func(name string, details interface{}) {
			if detailsMap, ok := doc.AsMap(details); ok {
				interfaces = append(interfaces, standardInterface(name, detailsMap))
			} else if kind := doc.Scalar(details); kind != "" {
				interfaces = append(interfaces, Interface{Name: name, Kind: kind, Params: doc.NewMap()})
			}
		})
	} else if items, ok := doc.AsList(v); ok {
		for _, item := range items {
			if itemMap, ok := doc.AsMap(item); ok {
				interfaces = append(interfaces, standardInterface(itemMap.String("name"), itemMap))
			}
		}
	}

	return interfaces
}

func standardInterface(name string, details *doc.Map) Interface {
	params, _ := details.Lookup("parameters", "params")
	return Interface{
		Name:       name,
		Kind:       details.String("type", "kind"),
		Params:     normalizeParams(params),
		MapToModel: details.String("map_to_model"),
		VirtualIf:  details.String("virtual_if"),
	}
}
