// Package uvc links block interfaces to the UVC library: agent types,
// sequencers and the sequences available on them.
package uvc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daedaleanai/uvmgen/block"
	"github.com/daedaleanai/uvmgen/doc"
	"github.com/daedaleanai/uvmgen/log"
	"github.com/daedaleanai/uvmgen/util"
)

// DefaultPackages are imported by the testbench package when the mapping
// names none.
var DefaultPackages = []string{"istream_pkg", "ostream_pkg", "dpmem_pkg", "spmem_pkg"}

const defaultSequencerType = "uvm_sequencer"

var sequenceTypes = map[string][]string{
	"istream_env":  {"istream_directed_write_sequence", "istream_directed_random_burst_write_sequence"},
	"ostream_env":  {"ostream_random_burst_read_sequence", "ostream_directed_read_sequence"},
	"dpmem_env":    {"dpmem_directed_write_sequence", "dpmem_directed_read_sequence"},
	"spmem_env":    {"spmem_directed_write_sequence", "spmem_directed_read_sequence"},
	"register_env": {"register_configure_write_seq", "register_write_sequence"},
	"regbank_env":  {"register_configure_write_seq", "register_write_sequence"},
}

// SequenceTypes returns the library sequences known for UVC base type `base`.
func SequenceTypes(base string) []string {
	return append([]string{}, sequenceTypes[base]...)
}

// KnownBaseTypes lists the base types with known sequences, sorted.
func KnownBaseTypes() []string {
	return util.OrderedKeys(sequenceTypes)
}

// Sequences names the sequences used to drive one UVC.
type Sequences struct {
	Write     string `yaml:"write,omitempty"`
	Read      string `yaml:"read,omitempty"`
	Configure string `yaml:"configure,omitempty"`
}

// Writer returns the write sequence, falling back to the configure sequence.
func (s Sequences) Writer() string {
	if s.Write != "" {
		return s.Write
	}
	return s.Configure
}

// Entry is the mapping of one interface onto the UVC library.
type Entry struct {
	Name          string    `yaml:"-"`
	Type          string    `yaml:"type,omitempty"`
	Kind          string    `yaml:"kind,omitempty"`
	Params        *doc.Map  `yaml:"params,omitempty"`
	ModelArg      string    `yaml:"model_arg,omitempty"`
	SequencerType string    `yaml:"sequencer_type,omitempty"`
	SequencerName string    `yaml:"sequencer_name,omitempty"`
	SequenceTypes []string  `yaml:"sequence_types,omitempty"`
	Sequences     Sequences `yaml:"sequences,omitempty"`
}

// Mapping is the UVC mapping table together with the parameter
// transformation table and testbench package imports it carries.
type Mapping struct {
	entries         []Entry
	index           map[string]int
	Transformations *doc.Map
	Packages        []string
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{
		index:           map[string]int{},
		Transformations: doc.NewMap(),
		Packages:        []string{},
	}
}

// Set adds or replaces the entry for `e.Name`.
func (m *Mapping) Set(e Entry) {
	if i, ok := m.index[e.Name]; ok {
		m.entries[i] = e
		return
	}
	m.index[e.Name] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Lookup returns the entry of interface `name`.
func (m *Mapping) Lookup(name string) (Entry, bool) {
	i, ok := m.index[name]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Entries returns all entries in insertion order.
func (m *Mapping) Entries() []Entry {
	return append([]Entry{}, m.entries...)
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	return len(m.entries)
}

// PackagesOrDefault returns the configured package imports or DefaultPackages.
func (m *Mapping) PackagesOrDefault() []string {
	if len(m.Packages) == 0 {
		return append([]string{}, DefaultPackages...)
	}
	return append([]string{}, m.Packages...)
}

// Merge overlays `other` onto `m`. Fields set in entries of `other` win;
// transformation entries and packages of `other` are added.
func (m *Mapping) Merge(other *Mapping) {
	for _, e := range other.entries {
		base, ok := m.Lookup(e.Name)
		if !ok {
			m.Set(e)
			continue
		}
		m.Set(overlay(base, e))
	}
	m.Transformations.Update(other.Transformations)
	m.Packages = util.UniqueSlice(append(m.Packages, other.Packages...))
}

func overlay(base, top Entry) Entry {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}
		return a
	}
	base.Type = pick(base.Type, top.Type)
	base.Kind = pick(base.Kind, top.Kind)
	base.ModelArg = pick(base.ModelArg, top.ModelArg)
	base.SequencerType = pick(base.SequencerType, top.SequencerType)
	base.SequencerName = pick(base.SequencerName, top.SequencerName)
	base.Sequences.Write = pick(base.Sequences.Write, top.Sequences.Write)
	base.Sequences.Read = pick(base.Sequences.Read, top.Sequences.Read)
	base.Sequences.Configure = pick(base.Sequences.Configure, top.Sequences.Configure)
	if top.Params.Len() > 0 {
		base.Params = top.Params
	}
	if len(top.SequenceTypes) > 0 {
		base.SequenceTypes = top.SequenceTypes
	}
	return base
}

// Load reads a UVC mapping file with the top-level keys `uvc_mapping`,
// `transformations` and `packages`. A missing file yields an empty mapping
// and a warning.
func Load(path string) (*Mapping, error) {
	if !util.FileExists(path) {
		log.Warning("UVC mapping not found: %s - using empty mapping\n", path)
		return NewMapping(), nil
	}
	data, err := util.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes the contents of a UVC mapping file.
func Parse(data []byte) (*Mapping, error) {
	m := NewMapping()

	v, err := doc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse UVC mapping: %w", err)
	}
	if v == nil {
		return m, nil
	}
	root, ok := doc.AsMap(v)
	if !ok {
		return nil, errors.New("UVC mapping is not a mapping")
	}

	if value, ok := root.Get("uvc_mapping"); ok {
		entries, _ := doc.AsMap(value)
		entries.Range(func(name string, details interface{}) {
			d, ok := doc.AsMap(details)
			if !ok {
				d = doc.NewMap()
			}
			m.Set(parseEntry(name, d))
		})
	}
	if value, ok := root.Get("transformations"); ok {
		if t, ok := doc.AsMap(value); ok {
			m.Transformations = t
		}
	}
	if value, ok := root.Get("packages"); ok {
		m.Packages = doc.Strings(value)
	}
	return m, nil
}

func parseEntry(name string, d *doc.Map) Entry {
	params, _ := d.Get("params")
	paramsMap, _ := doc.AsMap(params)
	sequenceTypes, _ := d.Get("sequence_types")
	sequencesValue, _ := d.Get("sequences")
	sequences, _ := doc.AsMap(sequencesValue)

	e := Entry{
		Name:          name,
		Type:          d.String("type"),
		Kind:          d.String("kind"),
		Params:        paramsMap,
		ModelArg:      d.String("model_arg"),
		SequencerType: d.String("sequencer_type"),
		SequencerName: d.String("sequencer_name"),
		Sequences: Sequences{
			Write:     sequences.String("write"),
			Read:      sequences.String("read"),
			Configure: sequences.String("configure"),
		},
	}
	if sequenceTypes != nil {
		e.SequenceTypes = doc.Strings(sequenceTypes)
	}
	return e
}

// FromBlock derives a mapping from the interfaces of a block. The UVC and
// sequencer types follow from each interface's base kind.
func FromBlock(config block.Config) *Mapping {
	m := NewMapping()
	for _, iface := range config.Interfaces {
		base := block.KindBase(iface.Kind)
		types := SequenceTypes(base)
		m.Set(Entry{
			Name:          iface.Name,
			Type:          strings.Replace(base, "_env", "_uvc", 1),
			Kind:          iface.Kind,
			Params:        iface.Params,
			ModelArg:      iface.MapToModel,
			SequencerType: strings.Replace(base, "_env", "_sequencer", 1),
			SequencerName: "seqr_" + ShortName(iface.Name),
			SequenceTypes: types,
			Sequences:     defaultSequences(types),
		})
	}
	return m
}

func defaultSequences(types []string) Sequences {
	var s Sequences
	for _, t := range types {
		switch {
		case s.Write == "" && strings.Contains(t, "write"):
			s.Write = t
		case s.Read == "" && strings.Contains(t, "read"):
			s.Read = t
		}
	}
	return s
}

// ShortName strips the conventional `m_` prefix and `_env` suffix of an
// interface instance name.
func ShortName(name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, "m_"), "_env")
}

// Active describes a UVC that a test case drives.
type Active struct {
	Name          string
	Short         string
	SequencerName string
	SequencerType string
	Sequences     Sequences
}

// Active resolves the sequencer information of the named UVCs. Names
// without an entry get a derived `seqr_<short>` sequencer.
func (m *Mapping) Active(names []string) []Active {
	result := make([]Active, 0, len(names))
	for _, name := range names {
		a := Active{
			Name:          name,
			Short:         ShortName(name),
			SequencerName: "seqr_" + ShortName(name),
			SequencerType: defaultSequencerType,
		}
		if e, ok := m.Lookup(name); ok {
			if e.SequencerName != "" {
				a.SequencerName = e.SequencerName
			}
			if e.SequencerType != "" {
				a.SequencerType = e.SequencerType
			}
			a.Sequences = e.Sequences
		}
		result = append(result, a)
	}
	return result
}

// SequencerDeclaration returns the sequencer type and handle name declared in
// the virtual sequencer for interface `iface`.
func (m *Mapping) SequencerDeclaration(iface block.Interface) (string, string) {
	name := "seqr_" + ShortName(iface.Name)
	seqType := ""
	if e, ok := m.Lookup(iface.Name); ok {
		seqType = e.SequencerType
		if e.SequencerName != "" {
			name = e.SequencerName
		}
	}
	if seqType == "" {
		seqType = defaultSequencerType
		if iface.Kind != "" {
			seqType = strings.Replace(block.KindBase(iface.Kind), "_env", "_sequencer", 1)
		}
	}
	if values := iface.ParamValues(); len(values) > 0 {
		seqType = fmt.Sprintf("%s#(%s)", seqType, strings.Join(doc.Strings(values), ", "))
	}
	return seqType, name
}
