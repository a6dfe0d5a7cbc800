// Package vplan parses Vplan (test plan) documents into test cases.
package vplan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daedaleanai/uvmgen/doc"
	"github.com/daedaleanai/uvmgen/util"
)

const (
	ModeParam   = "mode"
	SignParam   = "sign_8b"
	DefaultMode = "00"
	DefaultSign = "dont_care"
)

// FunctionalCoverage is the coverage-intent entry listing covered features.
const FunctionalCoverage = "functional"

var (
	listKeys          = []string{"test_cases", "tests", "testcases", "TestCases"}
	idKeys            = []string{"TC_ID", "tc_id"}
	activeKeys        = []string{"Active_UVCs", "active_uvcs"}
	stimulusKeys      = []string{"Stimulus_Generation", "stimulus_generation"}
	coverageKeys      = []string{"Coverage_Intent", "coverage_intent"}
	observabilityKeys = []string{"Observability", "observability"}
)

var parameterGroups = map[string]bool{
	"regbank_program": true,
	"config":          true,
	"configuration":   true,
	"params":          true,
}

var patternGroups = map[string]bool{
	"input_provisioning": true,
	"data_patterns":      true,
	"patterns":           true,
}

type alias struct {
	param        string
	alternatives []string
	fallback     string
}

var wellKnownParams = []alias{
	{ModeParam, []string{"operation_mode", "op_mode", "MODE"}, DefaultMode},
	{SignParam, []string{"sign", "signed", "SIGN"}, DefaultSign},
}

// ErrNoTestCases is reported by plans whose document shape holds no
// recognizable test cases.
var ErrNoTestCases = errors.New("no test cases found")

// Plan is a parsed Vplan document.
type Plan struct {
	testCases []*doc.Map

	// Problem is set when the document could not be used. Such plans hold no
	// test cases.
	Problem error
	// Warnings lists test-case entries that were skipped.
	Warnings []string
}

// TestCase is the normalized configuration of one Vplan entry.
type TestCase struct {
	TCID          string   `yaml:"tc_id"`
	ActiveUVCs    []string `yaml:"active_uvcs"`
	Parameters    *doc.Map `yaml:"parameters"`
	Patterns      *doc.Map `yaml:"patterns"`
	Coverage      []string `yaml:"coverage"`
	Observability []string `yaml:"observability,omitempty"`
	Raw           *doc.Map `yaml:"-"`
}

// Parse parses Vplan `content`. It never fails: unusable documents yield a
// Plan without test cases and with Problem set.
func Parse(content string) *Plan {
	plan := &Plan{}

	v, err := doc.Decode([]byte(content))
	if err != nil {
		plan.Problem = fmt.Errorf("failed to parse vplan: %w", err)
		return plan
	}

	items, ok := testCaseItems(v)
	if !ok {
		plan.Problem = ErrNoTestCases
		return plan
	}
	for i, item := range items {
		m, ok := doc.AsMap(item)
		if !ok || m.Len() == 0 {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("Test case entry %d is not a mapping - skipped", i))
			continue
		}
		plan.testCases = append(plan.testCases, m)
	}
	if len(plan.testCases) == 0 {
		plan.Problem = ErrNoTestCases
	}
	return plan
}

// ParseFile reads and parses the Vplan document at `path`. The only error
// condition is an unreadable file.
func ParseFile(path string) (*Plan, error) {
	data, err := util.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vplan document: %w", err)
	}
	return Parse(string(data)), nil
}

func testCaseItems(v interface{}) ([]interface{}, bool) {
	if items, ok := doc.AsList(v); ok {
		return items, true
	}
	m, ok := doc.AsMap(v)
	if !ok {
		return nil, false
	}
	for _, key := range listKeys {
		if value, ok := m.Get(key); ok {
			if items, ok := doc.AsList(value); ok {
				return items, true
			}
			return []interface{}{value}, true
		}
	}
	for _, key := range idKeys {
		if m.Has(key) {
			return []interface{}{m}, true
		}
	}
	return nil, false
}

// TestCases returns the raw test-case mappings in document order.
func (p *Plan) TestCases() []*doc.Map {
	result := make([]*doc.Map, len(p.testCases))
	copy(result, p.testCases)
	return result
}

// TestCaseByID returns the raw test case whose identifier is `id`.
func (p *Plan) TestCaseByID(id string) (*doc.Map, bool) {
	for _, tc := range p.testCases {
		if tc.String(idKeys...) == id {
			return tc, true
		}
	}
	return nil, false
}

// Configs extracts the configuration of every test case.
func (p *Plan) Configs() []TestCase {
	return util.MappedSlice(p.testCases, ExtractConfig)
}

// ExtractConfig normalizes a raw test case. Stimulus sub-structures are
// flattened into Parameters and Patterns with later keys overwriting earlier
// ones, and the well-known parameters are always present.
func ExtractConfig(raw *doc.Map) TestCase {
	tc := TestCase{
		TCID:          raw.String(idKeys...),
		ActiveUVCs:    []string{},
		Parameters:    doc.NewMap(),
		Patterns:      doc.NewMap(),
		Coverage:      []string{},
		Observability: []string{},
		Raw:           raw,
	}

	if active, ok := raw.Lookup(activeKeys...); ok {
		tc.ActiveUVCs = util.UniqueSlice(doc.Strings(active))
	}

	if stimulus, ok := raw.Lookup(stimulusKeys...); ok {
		if items, ok := doc.AsList(stimulus); ok {
			for _, item := range items {
				tc.flatten(item)
			}
		} else {
			tc.flatten(stimulus)
		}
	}

	if coverage, ok := raw.Lookup(coverageKeys...); ok {
		tc.Coverage = functionalCoverage(coverage)
	}
	if observability, ok := raw.Lookup(observabilityKeys...); ok {
		tc.Observability = renderItems(observability)
	}

	for _, a := range wellKnownParams {
		if tc.Parameters.Has(a.param) {
			continue
		}
		if v, ok := tc.Parameters.Lookup(a.alternatives...); ok {
			tc.Parameters.Set(a.param, v)
		} else {
			tc.Parameters.Set(a.param, a.fallback)
		}
	}

	return tc
}

func (tc *TestCase) flatten(v interface{}) {
	m, ok := doc.AsMap(v)
	if !ok {
		return
	}
	m.Range(func(key string, value interface{}) {
		sub, isMap := doc.AsMap(value)
		switch {
		case parameterGroups[key]:
			if isMap {
				tc.Parameters.Update(sub)
			}
		case patternGroups[key]:
			if isMap {
				tc.Patterns.Update(sub)
			}
		case isMap:
			tc.flatten(sub)
		default:
			tc.Parameters.Set(key, value)
		}
	})
}

// functionalCoverage takes the functional coverage list from a coverage
// intent given as a mapping or as a list of mappings.
func functionalCoverage(v interface{}) []string {
	merged := doc.NewMap()
	if m, ok := doc.AsMap(v); ok {
		merged = m
	} else if items, ok := doc.AsList(v); ok {
		for _, item := range items {
			if m, ok := doc.AsMap(item); ok {
				merged.Update(m)
			}
		}
	}
	functional, ok := merged.Get(FunctionalCoverage)
	if !ok {
		return []string{}
	}
	return renderItems(functional)
}

// renderItems renders a list of document values as strings. Mappings are
// rendered as comma separated `key: value` pairs.
func renderItems(v interface{}) []string {
	items, ok := doc.AsList(v)
	if !ok {
		if doc.IsEmpty(v) {
			return []string{}
		}
		items = []interface{}{v}
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		result = append(result, render(item))
	}
	return result
}

func render(v interface{}) string {
	m, ok := doc.AsMap(v)
	if !ok {
		return doc.Scalar(v)
	}
	var parts []string
	m.Range(func(k string, value interface{}) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, render(value)))
	})
	return strings.Join(parts, ", ")
}

// Param returns the string form of parameter `name`.
func (tc TestCase) Param(name string) string {
	return tc.Parameters.String(name)
}
