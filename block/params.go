package block

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/daedaleanai/uvmgen/doc"
)

var (
	paramPairRegexp = regexp.MustCompile(`(\w+)\s*:\s*(\w+)`)
	integerRegexp   = regexp.MustCompile(`\d+`)
	kindParamRegexp = regexp.MustCompile(`#\(([^)]*)\)`)
	kindBaseRegexp  = regexp.MustCompile(`^\s*(\w+)`)
)

// normalizeParams brings the parameters of an interface into mapping form.
// Mappings are kept, lists are wrapped as {values: [...]} and strings are
// scanned for `identifier : token` pairs.
func normalizeParams(v interface{}) *doc.Map {
	switch value := v.(type) {
	case *doc.Map:
		return value
	case []interface{}:
		return doc.MapOf("values", value)
	case string:
		return paramPairs(value)
	case nil:
		return doc.NewMap()
	default:
		return doc.MapOf("values", []interface{}{value})
	}
}

func paramPairs(s string) *doc.Map {
	m := doc.NewMap()
	for _, match := range paramPairRegexp.FindAllStringSubmatch(s, -1) {
		m.Set(match[1], match[2])
	}
	return m
}

// legacyParams parses a legacy params value: `identifier : token` pairs
// first, then any bare integers.
func legacyParams(s string) *doc.Map {
	if m := paramPairs(s); m.Len() > 0 {
		return m
	}
	var values []interface{}
	for _, match := range integerRegexp.FindAllString(s, -1) {
		i, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		values = append(values, i)
	}
	if len(values) == 0 {
		return doc.NewMap()
	}
	return doc.MapOf("values", values)
}

// kindParams returns the positional parameters embedded in a kind such as
// "istream_env#(64, 9)". Integers are converted, other tokens kept verbatim.
func kindParams(kind string) []interface{} {
	match := kindParamRegexp.FindStringSubmatch(kind)
	if match == nil {
		return nil
	}
	var values []interface{}
	for _, token := range strings.Split(match[1], ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if i, err := strconv.Atoi(token); err == nil {
			values = append(values, i)
		} else {
			values = append(values, token)
		}
	}
	return values
}

// KindBase returns the type tag of a kind with any parameter list removed,
// e.g. "istream_env" for "istream_env#(64)".
func KindBase(kind string) string {
	match := kindBaseRegexp.FindStringSubmatch(kind)
	if match == nil {
		return strings.TrimSpace(kind)
	}
	return match[1]
}

func isEmptyValues(m *doc.Map) bool {
	if m.Len() != 1 {
		return false
	}
	v, ok := m.Get("values")
	return ok && doc.IsEmpty(v)
}
