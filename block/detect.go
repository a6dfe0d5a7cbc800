package block

import "strings"

// Format is the dialect of a Block document.
type Format int

const (
	Standard Format = iota
	Legacy
)

func (f Format) String() string {
	switch f {
	case Legacy:
		return "legacy"
	default:
		return "standard"
	}
}

// Markers whose presence anywhere in the raw text selects the legacy dialect.
// The match is a plain substring search, so free text such as a description
// containing "Kind :" also selects it.
var legacyMarkers = []string{"Name :", "Kind :", "Block :", "Clocks :", "Resets :", "Interfaces :"}

// Detect classifies `content`. Legacy is only chosen on positive evidence;
// everything else, including text that is not valid YAML, is Standard.
func Detect(content string) Format {
	for _, marker := range legacyMarkers {
		if strings.Contains(content, marker) {
			return Legacy
		}
	}
	if strings.Contains(content, "Block:") && strings.Contains(content, "Name :") {
		return Legacy
	}
	return Standard
}
