package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/example/statusboard/internal/lexicon"
	"github.com/example/statusboard/internal/localtime"
)

type clockPattern struct {
	re *regexp.Regexp
	// notFollowedByDigit rejects matches followed by optional spaces and a digit.
	notFollowedByDigit bool
}

// Clock expressions in priority order.
var clockPatterns = []clockPattern{
	{re: regexp.MustCompile(`(\d{1,2})시\s*(\d{1,2})분`)},
	{re: regexp.MustCompile(`(\d{1,2}):(\d{2})`)},
	{re: regexp.MustCompile(`(\d{1,2})\.(\d{2})(?:\D|$)`)},
	{re: regexp.MustCompile(`(?:^|\D)(\d{2})(\d{2})(?:\D|$)`)},
	{re: regexp.MustCompile(`(\d{1,2})시`), notFollowedByDigit: true},
	{re: regexp.MustCompile(`(?:^|\D)(\d)(\d{2})(?:\D|$)`)},
}

// Hour-only expressions, accepted only for start-time corrections where no
// duration can be confused with them.
var shortClockPatterns = []clockPattern{
	{re: regexp.MustCompile(`(?:^|\D)(\d{2})(?:\D|$)`)},
	{re: regexp.MustCompile(`(?:^|\D)(\d)(?:\D|$)`)},
}

// ExtractManualTime reads a clock expression from text and anchors it to the
// occurrence nearest receivedAt.
//
// Hours from 13 are taken literally. Smaller hours are ambiguous between
// morning and afternoon; the reading closer to receivedAt on a 24 hour circle
// wins, ties going to the smaller hour. Hours above 23 or minutes above 59
// make the expression invalid.
func ExtractManualTime(text string, receivedAt localtime.Time, allowShort bool) (localtime.Time, bool) {
	patterns := clockPatterns
	if allowShort {
		patterns = append(append([]clockPattern{}, clockPatterns...), shortClockPatterns...)
	}

	hour, minute, found := -1, 0, false
	for _, pattern := range patterns {
		if h, m, ok := pattern.match(text); ok {
			hour, minute, found = h, m, true
			break
		}
	}
	if !found || hour > 23 || minute > 59 || receivedAt.IsZero() {
		return localtime.Time{}, false
	}

	received := receivedAt.MinuteOfDay()
	target := hour*60 + minute
	if hour < 13 {
		pm := (target + 12*60) % localtime.MinutesPerDay
		if circularDistance(pm, received) < circularDistance(target, received) {
			target = pm
		}
	}

	anchored := receivedAt.AtMinuteOfDay(target)
	switch delta := anchored.Sub(receivedAt); {
	case delta > 12*time.Hour:
		anchored = anchored.AddDate(0, 0, -1)
	case delta < -12*time.Hour:
		anchored = anchored.AddDate(0, 0, 1)
	}
	return anchored, true
}

func (p clockPattern) match(text string) (int, int, bool) {
	for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
		if p.notFollowedByDigit {
			rest := strings.TrimLeft(text[loc[1]:], " \t")
			if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
				continue
			}
		}
		hour, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		minute := 0
		if len(loc) > 4 && loc[4] >= 0 {
			if minute, err = strconv.Atoi(text[loc[4]:loc[5]]); err != nil {
				continue
			}
		}
		return hour, minute, true
	}
	return 0, 0, false
}

func circularDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if alt := localtime.MinutesPerDay - d; alt < d {
		return alt
	}
	return d
}

// durationPattern matches an explicit usage amount written before an end token.
func durationPattern(lex *lexicon.Lexicon) *regexp.Regexp {
	signal, ok := lex.Signal(lexicon.SignalEnd)
	if !ok {
		return nil
	}
	tokens := signal.Tokens()
	quoted := make([]string, 0, len(tokens))
	for _, token := range tokens {
		quoted = append(quoted, regexp.QuoteMeta(token))
	}
	return regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:` + strings.Join(quoted, "|") + `)`)
}

func (p *Parser) usageDuration(section string) *float64 {
	if p.durationRe == nil {
		return nil
	}
	groups := p.durationRe.FindStringSubmatch(section)
	if groups == nil {
		return nil
	}
	value, err := strconv.ParseFloat(groups[1], 64)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

func (p *Parser) stripDuration(text string) string {
	if p.durationRe == nil {
		return text
	}
	return p.durationRe.ReplaceAllString(text, " ")
}
