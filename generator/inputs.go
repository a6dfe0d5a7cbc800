package generator

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/daedaleanai/uvmgen/log"
	"github.com/daedaleanai/uvmgen/util"
)

// Example keys, one per prompt that takes a style exemplar.
const (
	exampleEnv        = "env"
	exampleVseqr      = "vseqr"
	exampleInterface  = "interface"
	exampleScoreboard = "scoreboard"
	examplePackage    = "package"
	exampleTest       = "test"
	exampleVseq       = "vseq"
)

type exampleRule struct {
	key     string
	needles []string
}

// Checked in order; the first rule matching a file name wins.
var exampleRules = []exampleRule{
	{exampleVseqr, []string{"virtual_sequencer", "vseqr"}},
	{exampleVseq, []string{"_vseq", "virtual_sequence"}},
	{exampleScoreboard, []string{"scoreboard"}},
	{examplePackage, []string{"_pkg"}},
	{exampleTest, []string{"_test"}},
	{exampleInterface, []string{"_if", "interface"}},
	{exampleEnv, []string{"_env"}},
}

func isSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".sv" || ext == ".svh"
}

func sourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isSource(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func classifyExample(path string) (string, bool) {
	name := strings.ToLower(filepath.Base(path))
	for _, rule := range exampleRules {
		for _, needle := range rule.needles {
			if strings.Contains(name, needle) {
				return rule.key, true
			}
		}
	}
	return "", false
}

// collectExamples loads one style exemplar per artifact kind from `dir`.
// The first file in path order wins for each kind.
func collectExamples(dir string) (map[string]string, error) {
	examples := map[string]string{}
	if dir == "" {
		return examples, nil
	}
	if !util.DirExists(dir) {
		log.Warning("Example directory not found: %s\n", dir)
		return examples, nil
	}

	files, err := sourceFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan examples in %s: %w", dir, err)
	}
	for _, path := range files {
		key, ok := classifyExample(path)
		if !ok {
			continue
		}
		if _, seen := examples[key]; seen {
			continue
		}
		data, err := util.ReadFile(path)
		if err != nil {
			return nil, err
		}
		log.Debug("Using %s as %s example\n", path, key)
		examples[key] = string(data)
	}
	return examples, nil
}

var uvcDeclRegexp = regexp.MustCompile(`^\s*((virtual\s+)?class\s+\w+|rand\s+\w+|typedef\s+\w+)`)

const maxUVCLinesPerFile = 40

// collectUVCInfo summarizes the UVC library in `dir`: the class, typedef and
// rand field declarations of every source file.
func collectUVCInfo(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	if !util.DirExists(dir) {
		log.Warning("UVC library not found: %s\n", dir)
		return "", nil
	}

	files, err := sourceFiles(dir)
	if err != nil {
		return "", fmt.Errorf("failed to scan UVC library in %s: %w", dir, err)
	}

	var b strings.Builder
	for _, path := range files {
		data, err := util.ReadFile(path)
		if err != nil {
			return "", err
		}
		var lines []string
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() && len(lines) < maxUVCLinesPerFile {
			if line := scanner.Text(); uvcDeclRegexp.MatchString(line) {
				lines = append(lines, strings.TrimSpace(line))
			}
		}
		if len(lines) == 0 {
			continue
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "// %s\n%s\n", filepath.ToSlash(rel), strings.Join(lines, "\n"))
	}
	return strings.TrimSpace(b.String()), nil
}
