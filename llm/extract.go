package llm

import (
	"fmt"
	"regexp"
	"strings"
)

var fencedBlockRegexps = []*regexp.Regexp{
	regexp.MustCompile("(?s)```systemverilog\\s*\\n(.*?)```"),
	regexp.MustCompile("(?s)```sv\\s*\\n(.*?)```"),
	regexp.MustCompile("(?s)```verilog\\s*\\n(.*?)```"),
	regexp.MustCompile("(?s)```\\s*\\n(.*?)```"),
}

var artifactRegexps = []*regexp.Regexp{
	regexp.MustCompile("(?m)^```\\w*[ \\t]*$"),
	regexp.MustCompile(`(?im)^Here's the.*?:[ \t]*$`),
	regexp.MustCompile(`(?im)^Here is the.*?:[ \t]*$`),
	regexp.MustCompile(`(?im)^[ \t]*Note:.*$`),
}

// ExtractCode returns the SystemVerilog source in a model `response`. The
// first fenced block wins, checked in order of language tag. Leftover fences
// and chatter lines are removed.
func ExtractCode(response string) string {
	code := response
	for _, re := range fencedBlockRegexps {
		if match := re.FindStringSubmatch(code); match != nil {
			code = match[1]
			break
		}
	}
	for _, re := range artifactRegexps {
		code = re.ReplaceAllString(code, "")
	}
	return strings.TrimSpace(code)
}

type blockPair struct {
	open, close *regexp.Regexp
	format      string
}

var blockPairs = []blockPair{
	{regexp.MustCompile(`\bclass\b`), regexp.MustCompile(`\bendclass\b`), "Unbalanced class/endclass: %d class vs %d endclass"},
	{regexp.MustCompile(`\bfunction\b`), regexp.MustCompile(`\bendfunction\b`), "Unbalanced function/endfunction: %d vs %d"},
	{regexp.MustCompile(`\btask\b`), regexp.MustCompile(`\bendtask\b`), "Unbalanced task/endtask: %d vs %d"},
}

// Validate reports obvious structural problems in generated `code`. An empty
// result means nothing was found, not that the code compiles.
func Validate(code string) []string {
	if strings.TrimSpace(code) == "" {
		return []string{"Empty code generated"}
	}

	var issues []string
	if !strings.Contains(code, "class") && !strings.Contains(code, "interface") && !strings.Contains(code, "module") {
		issues = append(issues, "No class, interface, or module declaration found")
	}
	for _, pair := range blockPairs {
		opens := len(pair.open.FindAllStringIndex(code, -1))
		closes := len(pair.close.FindAllStringIndex(code, -1))
		if opens != closes {
			issues = append(issues, fmt.Sprintf(pair.format, opens, closes))
		}
	}
	return issues
}
