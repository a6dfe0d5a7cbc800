// Package workspace owns the output directory tree of a generation run.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/daedaleanai/uvmgen/log"
	"github.com/daedaleanai/uvmgen/util"
)

// Kind is the artifact kind of a generated file. It selects the output
// directory.
type Kind string

const (
	Env              Kind = "env"
	VirtualSequencer Kind = "virtual_sequencer"
	Interface        Kind = "interface"
	Scoreboard       Kind = "scoreboard"
	Package          Kind = "package"
	Test             Kind = "test"
	VirtualSequence  Kind = "virtual_sequence"
)

const (
	fileSuffix = ".sv"
	infraDir   = "ip_infra"
	testsDir   = "tests"
)

var kindDirs = map[Kind]string{
	Env:              filepath.Join(infraDir, "env"),
	VirtualSequencer: filepath.Join(infraDir, "virtual_sequencer"),
	Interface:        filepath.Join(infraDir, "interface"),
	Scoreboard:       filepath.Join(infraDir, "scoreboard"),
	Package:          filepath.Join(infraDir, "pkg"),
	Test:             filepath.Join(testsDir, "tests"),
	VirtualSequence:  filepath.Join(testsDir, "virtual_sequences"),
}

// Kinds lists all artifact kinds in generation order.
var Kinds = []Kind{Env, VirtualSequencer, Interface, Scoreboard, Package, Test, VirtualSequence}

// RelPath is the path of artifact `name` of kind `kind` relative to the
// output root.
func RelPath(kind Kind, name string) string {
	return filepath.Join(kindDirs[kind], name+fileSuffix)
}

type Status int

const (
	Created Status = iota
	Overwritten
	Skipped
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Overwritten:
		return "overwritten"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Record is one file handled by a FileManager.
type Record struct {
	Kind   Kind
	Path   string
	Status Status
	Size   int
}

// FileManager writes generated files below a root directory. It is safe for
// concurrent use.
type FileManager struct {
	root string

	mu      sync.Mutex
	records []Record
}

func New(root string) *FileManager {
	return &FileManager{root: root}
}

func (m *FileManager) Root() string {
	return m.root
}

// Setup creates the output directory tree.
func (m *FileManager) Setup() error {
	for _, kind := range Kinds {
		dir := filepath.Join(m.root, kindDirs[kind])
		if err := os.MkdirAll(dir, util.DirMode); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return nil
}

// Write stores `content` as artifact `name` of kind `kind`. With
// `skipIfExists` an existing file is left untouched.
func (m *FileManager) Write(kind Kind, name, content string, skipIfExists bool) (Record, error) {
	path := filepath.Join(m.root, RelPath(kind, name))
	record := Record{Kind: kind, Path: path, Status: Created, Size: len(content)}

	exists := util.FileExists(path)
	switch {
	case exists && skipIfExists:
		log.Debug("Skipping existing file %s\n", path)
		record.Status = Skipped
		record.Size = 0
	default:
		if exists {
			record.Status = Overwritten
		}
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
			record.Size++
		}
		if err := util.WriteFile(path, []byte(content)); err != nil {
			return record, err
		}
	}

	m.mu.Lock()
	m.records = append(m.records, record)
	m.mu.Unlock()
	return record, nil
}

// Read returns the content of an existing artifact.
func (m *FileManager) Read(kind Kind, name string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(m.root, RelPath(kind, name)))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// List returns the artifact names of kind `kind` present on disk, sorted.
func (m *FileManager) List(kind Kind) []string {
	matches, _ := filepath.Glob(filepath.Join(m.root, kindDirs[kind], "*"+fileSuffix))
	names := util.MappedSlice(matches, func(path string) string {
		return strings.TrimSuffix(filepath.Base(path), fileSuffix)
	})
	sort.Strings(names)
	return names
}

// Records returns the handled files in the order they were written.
func (m *FileManager) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record{}, m.records...)
}

// Summary renders a report of the handled files grouped by kind.
func (m *FileManager) Summary() string {
	records := m.Records()

	var b strings.Builder
	fmt.Fprintf(&b, "Output directory: %s\n", m.root)
	total := 0
	for _, kind := range Kinds {
		group := util.FilteredSlice(records, func(r Record) bool { return r.Kind == kind })
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s (%d):\n", kind, len(group))
		for _, r := range group {
			rel, err := filepath.Rel(m.root, r.Path)
			if err != nil {
				rel = r.Path
			}
			fmt.Fprintf(&b, "    %s [%s]\n", rel, r.Status)
			if r.Status != Skipped {
				total++
			}
		}
	}
	fmt.Fprintf(&b, "Total files written: %d\n", total)
	return b.String()
}
