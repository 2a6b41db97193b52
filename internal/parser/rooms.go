package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var digitRun = regexp.MustCompile(`\d+`)

const roomSuffix = "호"

// roomNumbers returns every standalone three-digit number of line in order.
// Digits that belong to a clock or decimal expression are skipped.
func roomNumbers(line string) []string {
	var rooms []string
	for _, loc := range digitRun.FindAllStringIndex(line, -1) {
		if loc[1]-loc[0] != 3 || inNumericExpression(line, loc[0], loc[1]) {
			continue
		}
		rooms = append(rooms, line[loc[0]:loc[1]])
	}
	return rooms
}

// extractRoomNumber returns the room number of a line and the byte offset
// just past it. A three-digit number leading the line always counts. Other
// three-digit numbers count when followed by "호" or whitespace; those
// before limit are preferred.
func extractRoomNumber(line string, limit int) (string, int) {
	locs := digitRun.FindAllStringIndex(line, -1)
	if len(locs) > 0 && locs[0][0] == 0 && locs[0][1] == 3 && !inNumericExpression(line, 0, 3) {
		return line[:3], skipRoomSuffix(line, 3)
	}

	var fallback []int
	for _, loc := range locs {
		if loc[1]-loc[0] != 3 || inNumericExpression(line, loc[0], loc[1]) {
			continue
		}
		end := skipRoomSuffix(line, loc[1])
		if end < len(line) {
			next, _ := utf8.DecodeRuneInString(line[end:])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		if loc[0] < limit {
			return line[loc[0]:loc[1]], end
		}
		if fallback == nil {
			fallback = []int{loc[0], loc[1], end}
		}
	}
	if fallback != nil {
		return line[fallback[0]:fallback[1]], fallback[2]
	}
	return "", -1
}

func skipRoomSuffix(line string, pos int) int {
	rest := strings.TrimLeft(line[pos:], " \t")
	if strings.HasPrefix(rest, roomSuffix) {
		return len(line) - len(rest) + len(roomSuffix)
	}
	return pos
}

// inNumericExpression reports whether line[start:end] is glued to a clock
// separator or decimal point.
func inNumericExpression(line string, start, end int) bool {
	if start > 0 {
		if prev := line[start-1]; prev == ':' || prev == '.' {
			return true
		}
	}
	if end < len(line) {
		if next := line[end]; next == ':' {
			return true
		}
		if next := line[end]; next == '.' && end+1 < len(line) && line[end+1] >= '0' && line[end+1] <= '9' {
			return true
		}
	}
	return false
}

// stripRoom blanks standalone occurrences of room in text so that they are
// not read as clock expressions.
func stripRoom(text, room string) string {
	if room == "" || !strings.Contains(text, room) {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range digitRun.FindAllStringIndex(text, -1) {
		if text[loc[0]:loc[1]] != room {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(" ")
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}
