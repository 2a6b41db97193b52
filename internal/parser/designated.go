package parser

import (
	"regexp"
	"strings"
)

var designatedDivider = regexp.MustCompile(`➖+\s*ㅈ\.?ㅁ\s*➖+`)

var designatedSeparator = regexp.MustCompile(`[ㅡ\-]`)

// DesignatedEntry is one "manager ㅡ names" line of a designated section.
type DesignatedEntry struct {
	ManagerName  string
	SubjectNames []string
}

// DesignatedSection is the block of designated bookings that follows a
// "➖ㅈ.ㅁ➖" divider.
type DesignatedSection struct {
	Entries []DesignatedEntry
}

// SubjectNames returns every listed name in order, without duplicates.
func (s DesignatedSection) SubjectNames() []string {
	var names []string
	for _, entry := range s.Entries {
		for _, name := range entry.SubjectNames {
			names = appendUnique(names, name)
		}
	}
	return names
}

// ManagerOf returns the manager listed for name.
func (s DesignatedSection) ManagerOf(name string) string {
	for _, entry := range s.Entries {
		for _, listed := range entry.SubjectNames {
			if listed == name {
				return entry.ManagerName
			}
		}
	}
	return ""
}

// ParseDesignatedSection extracts the designated section of text, if any.
func ParseDesignatedSection(text string) (DesignatedSection, bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	idx := designatedDividerIndex(lines)
	if idx < 0 {
		return DesignatedSection{}, false
	}
	return parseDesignatedEntries(lines[idx+1:]), true
}

func designatedDividerIndex(lines []string) int {
	for i, line := range lines {
		if designatedDivider.MatchString(line) {
			return i
		}
	}
	return -1
}

// parseDesignatedEntries reads "manager ㅡ name name 403" lines. Dots are
// dropped and purely numeric tokens (room numbers) are ignored.
func parseDesignatedEntries(lines []string) DesignatedSection {
	var section DesignatedSection
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		parts := designatedSeparator.Split(line, -1)
		if len(parts) < 2 {
			continue
		}
		right := strings.TrimSpace(strings.ReplaceAll(strings.Join(parts[1:], ""), ".", ""))
		if right == "" {
			continue
		}
		entry := DesignatedEntry{ManagerName: strings.TrimSpace(parts[0])}
		for _, token := range strings.Fields(right) {
			if isNumeric(token) {
				continue
			}
			entry.SubjectNames = append(entry.SubjectNames, token)
		}
		if len(entry.SubjectNames) > 0 {
			section.Entries = append(section.Entries, entry)
		}
	}
	return section
}
