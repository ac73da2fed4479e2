package fallback

import "strings"

// skill is a normalized skill key with the text to show for it.
type skill struct {
	key     string
	display string
}

// normalizeSkills lowercases and trims every entry, splitting entries on comma
// and semicolon. Duplicates keep their first occurrence.
func normalizeSkills(entries []string) []skill {
	skills := make([]skill, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		for _, part := range strings.FieldsFunc(entry, func(r rune) bool { return r == ',' || r == ';' }) {
			display := strings.Join(strings.Fields(part), " ")
			key := strings.ToLower(display)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			skills = append(skills, skill{key: key, display: display})
		}
	}

	return skills
}

// NormalizedDisplay returns the display text of entries after splitting and
// dropping case-insensitive duplicates.
func NormalizedDisplay(entries []string) []string {
	skills := normalizeSkills(entries)
	display := make([]string, 0, len(skills))
	for _, s := range skills {
		display = append(display, s.display)
	}
	return display
}
