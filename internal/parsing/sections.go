package parsing

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/talent-match/internal/prompts"
)

// ParseError reports a model response that lacks mandatory structure.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse model response: " + e.Reason
}

// sections maps a label to the lines that follow it. The text after the colon
// on the label line is the first entry.
type sections map[string][]string

var (
	integerPattern = regexp.MustCompile(`-?\d+`)
	bulletPattern  = regexp.MustCompile(`^(?:[-*•·+]|\d{1,2}[.)])\s+`)
	knownLabels    = buildKnownLabels()
)

func buildKnownLabels() map[string]struct{} {
	known := make(map[string]struct{})
	for _, label := range prompts.AllLabels() {
		known[label] = struct{}{}
	}
	return known
}

// splitSections scans raw for labeled sections. Text before the first label is
// ignored. When no label is present, a JSON object embedded in the text is
// accepted instead, keyed by the lowercase label names.
func splitSections(raw string) sections {
	result := make(sections)
	current := ""

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}

		if label, rest, ok := labelLine(trimmed); ok {
			current = label
			if _, exists := result[label]; !exists {
				result[label] = []string{}
			}
			if rest != "" {
				result[label] = append(result[label], rest)
			}
			continue
		}

		if current == "" || trimmed == "" {
			continue
		}
		result[current] = append(result[current], trimmed)
	}

	if len(result) == 0 {
		return sectionsFromJSON(raw)
	}
	return result
}

// labelLine recognises "SCORE: 80", "**Score:** 80" and "## Candidate message:".
func labelLine(line string) (string, string, bool) {
	candidate := strings.TrimLeft(line, "#*_ \t")
	idx := strings.Index(candidate, ":")
	if idx <= 0 {
		return "", "", false
	}

	key := strings.Trim(candidate[:idx], "*_` \t")
	key = strings.ToUpper(key)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if _, ok := knownLabels[key]; !ok {
		return "", "", false
	}

	rest := strings.TrimSpace(strings.TrimLeft(candidate[idx+1:], "*_ \t"))
	return key, rest, true
}

func sectionsFromJSON(raw string) sections {
	fragment := extractJSON(raw, '{', '}')
	if fragment == "" {
		return sections{}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(fragment), &data); err != nil {
		return sections{}
	}

	result := make(sections)
	for key, value := range data {
		label := strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_").Replace(strings.TrimSpace(key)))
		if _, ok := knownLabels[label]; !ok {
			continue
		}
		switch v := value.(type) {
		case []any:
			lines := make([]string, 0, len(v))
			for _, item := range v {
				if s := coerceString(item); s != "" {
					lines = append(lines, s)
				}
			}
			result[label] = lines
		default:
			if s := coerceString(v); s != "" {
				result[label] = []string{s}
			} else {
				result[label] = []string{}
			}
		}
	}
	return result
}

func (s sections) has(label string) bool {
	_, ok := s[label]
	return ok
}

// integer returns the first integer found in the section.
func (s sections) integer(label string) (int, bool) {
	for _, line := range s[label] {
		if match := integerPattern.FindString(line); match != "" {
			n, err := strconv.Atoi(match)
			if err != nil {
				// Out of range for int; saturate so clamping still works.
				if strings.HasPrefix(match, "-") {
					return math.MinInt, true
				}
				return math.MaxInt, true
			}
			return n, true
		}
	}
	return 0, false
}

// list returns the section entries without bullet markers or template placeholders.
func (s sections) list(label string) []string {
	items := make([]string, 0, len(s[label]))
	for _, line := range s[label] {
		item := strings.TrimSpace(bulletPattern.ReplaceAllString(line, ""))
		item = strings.Trim(item, "*_ \t")
		if item == "" || isPlaceholder(item) {
			continue
		}
		items = append(items, item)
	}
	return items
}

// inlineList is list but also splits comma separated entries.
func (s sections) inlineList(label string) []string {
	var items []string
	for _, item := range s.list(label) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	}
	if items == nil {
		return []string{}
	}
	return items
}

// text joins the section into a single paragraph.
func (s sections) text(label string) string {
	parts := make([]string, 0, len(s[label]))
	for _, line := range s[label] {
		line = strings.TrimSpace(bulletPattern.ReplaceAllString(line, ""))
		if line == "" || isPlaceholder(line) {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

func isPlaceholder(s string) bool {
	return strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">")
}

// extractJSON strips code fences and returns the text between the first open
// and the last close delimiter.
func extractJSON(raw string, open, close byte) string {
	raw = strings.TrimSpace(raw)
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start == -1 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceInt(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int(math.Round(val)), true
	case string:
		if match := integerPattern.FindString(val); match != "" {
			n, err := strconv.Atoi(match)
			return n, err == nil
		}
	}
	return 0, false
}
