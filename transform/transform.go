// Package transform maps symbolic parameter values from a Vplan to the
// encodings used in generated source text.
//
// Every lookup is total: missing or malformed table entries resolve to a
// compiled-in fallback.
package transform

import (
	"github.com/daedaleanai/uvmgen/doc"
)

const (
	modeKey    = "mode"
	signKey    = "sign_8b"
	psPhaseKey = "ps_phase"

	DontCare = "dont_care"

	PSFirst = "PS_FIRST"
	PSMode  = "PS_MODE"
	PSLast  = "PS_LAST"
)

var twoBitCodes = map[string]int{"00": 0, "01": 1, "10": 2, "11": 3}

var psFallback = map[string]PSFlags{
	PSFirst: {First: true},
	PSMode:  {Mode: true},
	PSLast:  {Last: true},
}

// PSFlags is the one-hot phase encoding of a processing-sequence step.
type PSFlags struct {
	First bool
	Mode  bool
	Last  bool
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ints returns the flags as 0/1 integers in PS_FIRST, PS_MODE, PS_LAST order.
func (f PSFlags) Ints() (first, mode, last int) {
	return bit(f.First), bit(f.Mode), bit(f.Last)
}

// Map renders the flags keyed by their phase names.
func (f PSFlags) Map() map[string]int {
	return map[string]int{PSFirst: bit(f.First), PSMode: bit(f.Mode), PSLast: bit(f.Last)}
}

// Transformer translates parameter values using a transformation table.
type Transformer struct {
	table *doc.Map
}

// New returns a Transformer over `table`. A nil table behaves as empty.
func New(table *doc.Map) *Transformer {
	if table == nil {
		table = doc.NewMap()
	}
	return &Transformer{table: table}
}

func (t *Transformer) family(param string) (*doc.Map, bool) {
	v, ok := t.table.Get(param)
	if !ok {
		return nil, false
	}
	return doc.AsMap(v)
}

// Transform looks `value` up in the table of `param`. When the table has no
// entry for it, the table's `default` is used, and failing that the value
// itself is returned.
func (t *Transformer) Transform(param string, value string) interface{} {
	family, ok := t.family(param)
	if !ok {
		return value
	}
	if v, ok := family.Get(value); ok {
		return v
	}
	if v, ok := family.Get("default"); ok {
		return v
	}
	return value
}

// encoded resolves an entry that is either an integer or a mapping carrying
// the integer under `value`.
func encoded(v interface{}) (int, bool) {
	if m, ok := doc.AsMap(v); ok {
		value, ok := m.Get("value")
		if !ok {
			return 0, false
		}
		return doc.Int(value)
	}
	switch v.(type) {
	case int, int64, uint64, float64:
		return doc.Int(v)
	}
	return 0, false
}

func (t *Transformer) lookupInt(param string, value string) int {
	if family, ok := t.family(param); ok {
		if v, ok := family.Get(value); ok {
			if i, ok := encoded(v); ok {
				return i
			}
		}
	}
	return twoBitCodes[value]
}

// ModeInt returns the integer encoding of an operation mode.
func (t *Transformer) ModeInt(mode string) int {
	return t.lookupInt(modeKey, mode)
}

// SignInt returns the integer encoding of a sign_8b value. DontCare is
// always 0.
func (t *Transformer) SignInt(sign string) int {
	if sign == DontCare {
		return 0
	}
	return t.lookupInt(signKey, sign)
}

// PSFlags returns the flag pattern of a processing-sequence phase. Unknown
// phases yield the PS_FIRST pattern.
func (t *Transformer) PSFlags(phase string) PSFlags {
	if family, ok := t.family(psPhaseKey); ok {
		if v, ok := family.Get(phase); ok {
			if m, ok := doc.AsMap(v); ok {
				return PSFlags{
					First: flag(m, PSFirst),
					Mode:  flag(m, PSMode),
					Last:  flag(m, PSLast),
				}
			}
		}
	}
	if flags, ok := psFallback[phase]; ok {
		return flags
	}
	return psFallback[PSFirst]
}

func flag(m *doc.Map, key string) bool {
	v, _ := m.Get(key)
	return doc.Bool(v)
}
