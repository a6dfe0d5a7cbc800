package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daedaleanai/uvmgen/util"
)

// FileName is the manifest file written to the output root.
const FileName = "manifest.yaml"

// Input is a document the run was generated from.
type Input struct {
	Role   string `yaml:"role"`
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

// Artifact is a generated file, relative to the output root.
type Artifact struct {
	Kind   string `yaml:"kind"`
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
}

type Manifest struct {
	GeneratorVersion string     `yaml:"generator_version"`
	RunID            string     `yaml:"run_id"`
	Created          string     `yaml:"created"`
	Block            string     `yaml:"block"`
	Provider         string     `yaml:"provider"`
	Model            string     `yaml:"model"`
	Inputs           []Input    `yaml:"inputs"`
	Artifacts        []Artifact `yaml:"artifacts"`
	Snapshot         string     `yaml:"snapshot,omitempty"`
}

type ArtifactDiff struct {
	New, Old Artifact
}

type DiffResult struct {
	Differ                           bool
	GeneratorVersion                 string
	ChangedInputs                    []string
	ModifiedArtifacts                []ArtifactDiff
	AddedArtifacts, RemovedArtifacts []Artifact
}

// Hash is the hex SHA-256 of `data`.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// New starts the manifest of a run with a fresh run id.
func New(block, provider, model string) Manifest {
	return Manifest{
		GeneratorVersion: util.GeneratorVersion.String(),
		RunID:            uuid.NewString(),
		Created:          time.Now().UTC().Format(time.RFC3339),
		Block:            block,
		Provider:         provider,
		Model:            model,
		Inputs:           []Input{},
		Artifacts:        []Artifact{},
	}
}

// AddInput records input document `path` with content `data`.
func (m *Manifest) AddInput(role, path string, data []byte) {
	m.Inputs = append(m.Inputs, Input{Role: role, Path: path, SHA256: Hash(data)})
}

// AddArtifact records the file at `path`, stored relative to `root`. The
// hash is computed from the file on disk.
func (m *Manifest) AddArtifact(root, kind, path string) error {
	data, err := util.ReadFile(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return fmt.Errorf("artifact %s is outside of %s: %w", path, root, err)
	}
	artifact := Artifact{Kind: kind, Path: filepath.ToSlash(rel), SHA256: Hash(data)}
	for i, a := range m.Artifacts {
		if a.Path == artifact.Path {
			m.Artifacts[i] = artifact
			return nil
		}
	}
	m.Artifacts = append(m.Artifacts, artifact)
	return nil
}

// Sorted returns the artifacts ordered by path.
func (m Manifest) Sorted() []Artifact {
	return util.SliceOrderedBy(m.Artifacts, func(a *Artifact) string { return a.Path })
}

func Write(path string, m Manifest) error {
	m.Artifacts = m.Sorted()
	return util.WriteYaml(path, m)
}

func Read(path string) (Manifest, error) {
	var m Manifest
	if err := util.ReadYaml(path, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest: %w", err)
	}
	return m, nil
}

func findArtifact(path string, artifacts []Artifact) (Artifact, bool) {
	for _, a := range artifacts {
		if a.Path == path {
			return a, true
		}
	}
	return Artifact{}, false
}

// Diff compares two run manifests.
func Diff(newManifest, oldManifest Manifest) DiffResult {
	result := DiffResult{}

	if newManifest.GeneratorVersion != oldManifest.GeneratorVersion {
		result.Differ = true
		result.GeneratorVersion = fmt.Sprintf("Generator version changed from %s to %s", oldManifest.GeneratorVersion, newManifest.GeneratorVersion)
	}

	oldInputs := map[string]string{}
	for _, in := range oldManifest.Inputs {
		oldInputs[in.Role] = in.SHA256
	}
	for _, in := range newManifest.Inputs {
		if hash, ok := oldInputs[in.Role]; !ok || hash != in.SHA256 {
			result.Differ = true
			result.ChangedInputs = append(result.ChangedInputs, in.Role)
		}
	}

	// A second pass through the old artifacts finds the removed ones.
	for _, a := range newManifest.Sorted() {
		if old, found := findArtifact(a.Path, oldManifest.Artifacts); found {
			if a != old {
				result.Differ = true
				result.ModifiedArtifacts = append(result.ModifiedArtifacts, ArtifactDiff{New: a, Old: old})
			}
		} else {
			result.Differ = true
			result.AddedArtifacts = append(result.AddedArtifacts, a)
		}
	}
	for _, a := range oldManifest.Sorted() {
		if _, found := findArtifact(a.Path, newManifest.Artifacts); !found {
			result.Differ = true
			result.RemovedArtifacts = append(result.RemovedArtifacts, a)
		}
	}

	return result
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func (d DiffResult) String() string {
	if !d.Differ {
		return "Runs are identical\n"
	}

	var b strings.Builder
	if d.GeneratorVersion != "" {
		fmt.Fprintf(&b, "%s\n", d.GeneratorVersion)
	}
	for _, role := range d.ChangedInputs {
		fmt.Fprintf(&b, "Input changed: %s\n", role)
	}
	for _, a := range d.AddedArtifacts {
		fmt.Fprintf(&b, "+ %s\n", a.Path)
	}
	for _, a := range d.RemovedArtifacts {
		fmt.Fprintf(&b, "- %s\n", a.Path)
	}
	for _, a := range d.ModifiedArtifacts {
		fmt.Fprintf(&b, "~ %s (%s -> %s)\n", a.New.Path, shortHash(a.Old.SHA256), shortHash(a.New.SHA256))
	}
	return b.String()
}
