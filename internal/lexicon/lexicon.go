// Package lexicon holds the static vocabulary used to read chat messages:
// control signals with their aliases, fare-code rules, time-based ticket rules
// and the keycap digit glyphs. It carries data and lookups only.
package lexicon

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SignalKind identifies a control signal.
type SignalKind string

const (
	SignalCancel            SignalKind = "cancel"
	SignalNewSession        SignalKind = "new_session"
	SignalResume            SignalKind = "resume"
	SignalEnd               SignalKind = "end"
	SignalCorrection        SignalKind = "correction"
	SignalDesignatedHalfFee SignalKind = "designated_half_fee"
	SignalDesignatedFee     SignalKind = "designated_fee"
	SignalDesignated        SignalKind = "designated"
	SignalExtension         SignalKind = "extension"
	SignalTransfer          SignalKind = "transfer"
)

var knownKinds = map[SignalKind]bool{
	SignalCancel:            true,
	SignalNewSession:        true,
	SignalResume:            true,
	SignalEnd:               true,
	SignalCorrection:        true,
	SignalDesignatedHalfFee: true,
	SignalDesignatedFee:     true,
	SignalDesignated:        true,
	SignalExtension:         true,
	SignalTransfer:          true,
}

// Signal is one control token and the words accepted in its place.
type Signal struct {
	Kind    SignalKind `yaml:"kind"`
	Code    string     `yaml:"code"`
	Aliases []string   `yaml:"aliases,omitempty"`
}

// Tokens returns the code followed by its aliases.
func (s Signal) Tokens() []string {
	tokens := make([]string, 0, len(s.Aliases)+1)
	if s.Code != "" {
		tokens = append(tokens, s.Code)
	}
	for _, alias := range s.Aliases {
		if alias = strings.TrimSpace(alias); alias != "" {
			tokens = append(tokens, alias)
		}
	}
	return tokens
}

// FareRule maps a fare marker to a ticket count. When Pattern has a capture
// group holding a number, that number is the result; otherwise Value is.
type FareRule struct {
	Name    string  `yaml:"name"`
	Pattern string  `yaml:"pattern"`
	Value   float64 `yaml:"value,omitempty"`

	re *regexp.Regexp
}

// TicketRule classifies a usage length in minutes into half and full tickets.
type TicketRule struct {
	Name        string  `yaml:"name"`
	MinMinutes  int     `yaml:"min_minutes"`
	MaxMinutes  int     `yaml:"max_minutes"`
	HalfTickets float64 `yaml:"half_tickets"`
	FullTickets float64 `yaml:"full_tickets"`
	Free        bool    `yaml:"free,omitempty"`
}

// Lexicon is the complete vocabulary. Build one with Default or LoadFile.
type Lexicon struct {
	Signals      []Signal
	FareRules    []FareRule
	FareDefault  float64
	TicketRules  []TicketRule
	NumberGlyphs []string

	matchOrder []signalToken
}

type signalToken struct {
	kind  SignalKind
	token string
}

// Default returns the built-in vocabulary.
func Default() *Lexicon {
	lex := &Lexicon{
		Signals: []Signal{
			{Kind: SignalCancel, Code: "ㄱㅌ"},
			{Kind: SignalNewSession, Code: "ㅎㅅㄱㅈㅈㅎ", Aliases: []string{"현시간재진행"}},
			{Kind: SignalResume, Code: "ㅈㅈㅎ", Aliases: []string{"재진행"}},
			{Kind: SignalEnd, Code: "ㄲ", Aliases: []string{"끝"}},
			{Kind: SignalCorrection, Code: "ㅈㅈ", Aliases: []string{"정정"}},
			{Kind: SignalDesignatedHalfFee, Code: "ㅈㅁㅂㅅㅅ"},
			{Kind: SignalDesignatedFee, Code: "ㅈㅁㅅㅅ"},
			{Kind: SignalDesignated, Code: "ㅈㅁ"},
			{Kind: SignalExtension, Code: "ㅇㅈ"},
			{Kind: SignalTransfer, Code: "ㅌㄹㅅ"},
		},
		FareRules: []FareRule{
			{Name: "count", Pattern: `ㅃ\s*(\d+(?:\.\d+)?)`},
			{Name: "bare", Pattern: `ㅃ`, Value: 1},
		},
		FareDefault: 0,
		TicketRules: []TicketRule{
			{Name: "무료", MinMinutes: 1, MaxMinutes: 10, Free: true},
			{Name: "반티", MinMinutes: 11, MaxMinutes: 30, HalfTickets: 0.5},
			{Name: "완티", MinMinutes: 31, MaxMinutes: 60, FullTickets: 1},
		},
		NumberGlyphs: defaultGlyphs(),
	}
	if err := lex.compile(); err != nil {
		panic(fmt.Sprintf("lexicon: default vocabulary invalid: %v", err))
	}
	return lex
}

func defaultGlyphs() []string {
	glyphs := make([]string, 0, 11)
	for d := 0; d <= 9; d++ {
		glyphs = append(glyphs, strconv.Itoa(d)+"\uFE0F\u20E3")
	}
	return append(glyphs, "\U0001F51F")
}

// compile validates the tables and prepares the matchers.
func (l *Lexicon) compile() error {
	seen := make(map[SignalKind]bool, len(l.Signals))
	l.matchOrder = l.matchOrder[:0]
	for _, signal := range l.Signals {
		if !knownKinds[signal.Kind] {
			return fmt.Errorf("unknown signal kind %q", signal.Kind)
		}
		if seen[signal.Kind] {
			return fmt.Errorf("signal kind %q declared twice", signal.Kind)
		}
		seen[signal.Kind] = true
		if strings.TrimSpace(signal.Code) == "" {
			return fmt.Errorf("signal %q has no code", signal.Kind)
		}
		for _, token := range signal.Tokens() {
			l.matchOrder = append(l.matchOrder, signalToken{kind: signal.Kind, token: token})
		}
	}
	// Longer tokens first so that a code embedded in a longer one is not
	// reported twice.
	sort.SliceStable(l.matchOrder, func(i, j int) bool {
		return len([]rune(l.matchOrder[i].token)) > len([]rune(l.matchOrder[j].token))
	})

	for i := range l.FareRules {
		rule := &l.FareRules[i]
		if rule.Pattern == "" {
			return fmt.Errorf("fare rule %d has no pattern", i)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("fare rule %q: %w", rule.Name, err)
		}
		rule.re = re
	}

	for i, rule := range l.TicketRules {
		if rule.MinMinutes > rule.MaxMinutes {
			return fmt.Errorf("ticket rule %q: min %d exceeds max %d", rule.Name, rule.MinMinutes, rule.MaxMinutes)
		}
		if i > 0 && rule.MinMinutes <= l.TicketRules[i-1].MaxMinutes {
			return fmt.Errorf("ticket rule %q overlaps %q", rule.Name, l.TicketRules[i-1].Name)
		}
	}
	if len(l.NumberGlyphs) == 0 {
		l.NumberGlyphs = defaultGlyphs()
	}
	return nil
}

// Signal returns the declaration for kind.
func (l *Lexicon) Signal(kind SignalKind) (Signal, bool) {
	for _, signal := range l.Signals {
		if signal.Kind == kind {
			return signal, true
		}
	}
	return Signal{}, false
}

// Signals is a set of detected signal kinds.
type Signals map[SignalKind]bool

// Has reports whether kind was detected.
func (s Signals) Has(kind SignalKind) bool { return s[kind] }

// Any reports whether any of kinds was detected.
func (s Signals) Any(kinds ...SignalKind) bool {
	for _, kind := range kinds {
		if s[kind] {
			return true
		}
	}
	return false
}

// Detect returns every signal present in text. Tokens are matched longest
// first and a matched span is consumed, so "ㅈㅈㅎ" reports resume only.
func (l *Lexicon) Detect(text string) Signals {
	found := make(Signals)
	remaining := text
	for _, candidate := range l.matchOrder {
		if !strings.Contains(remaining, candidate.token) {
			continue
		}
		found[candidate.kind] = true
		remaining = strings.ReplaceAll(remaining, candidate.token, " ")
	}
	return found
}

// Index returns the byte offset of the first occurrence of any token of kind
// in text, or -1.
func (l *Lexicon) Index(text string, kind SignalKind) int {
	signal, ok := l.Signal(kind)
	if !ok {
		return -1
	}
	best := -1
	for _, token := range signal.Tokens() {
		if idx := strings.Index(text, token); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}

// HasPrefix reports whether text starts with a token of kind.
func (l *Lexicon) HasPrefix(text string, kind SignalKind) bool {
	signal, ok := l.Signal(kind)
	if !ok {
		return false
	}
	text = strings.TrimSpace(text)
	for _, token := range signal.Tokens() {
		if strings.HasPrefix(text, token) {
			return true
		}
	}
	return false
}

// SignalTokenAt reports the signal token that starts at the beginning of text, if any.
func (l *Lexicon) SignalTokenAt(text string) (SignalKind, string, bool) {
	for _, candidate := range l.matchOrder {
		if strings.HasPrefix(text, candidate.token) {
			return candidate.kind, candidate.token, true
		}
	}
	return "", "", false
}

// FindFare returns the first substring of text matched by a fare rule,
// evaluating rules in declaration order.
func (l *Lexicon) FindFare(text string) (string, bool) {
	for _, rule := range l.FareRules {
		if rule.re == nil {
			continue
		}
		if match := rule.re.FindString(text); match != "" {
			return match, true
		}
	}
	return "", false
}

// EvaluateFare maps a fare token to its ticket count. The first rule matching
// the token wins; when none matches the configured default is returned with ok false.
func (l *Lexicon) EvaluateFare(token string) (value float64, rule string, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return l.FareDefault, "", false
	}
	for _, r := range l.FareRules {
		if r.re == nil {
			continue
		}
		groups := r.re.FindStringSubmatch(token)
		if groups == nil {
			continue
		}
		if len(groups) > 1 && groups[1] != "" {
			if parsed, err := strconv.ParseFloat(groups[1], 64); err == nil {
				return parsed, r.Name, true
			}
		}
		return r.Value, r.Name, true
	}
	return l.FareDefault, "", false
}

// Glyph returns the keycap glyph for n, or its decimal form when none is defined.
func (l *Lexicon) Glyph(n int) string {
	if n >= 0 && n < len(l.NumberGlyphs) {
		return l.NumberGlyphs[n]
	}
	return strconv.Itoa(n)
}

// DecodeGlyphs replaces keycap glyphs in text with decimal digits.
func (l *Lexicon) DecodeGlyphs(text string) string {
	if !strings.ContainsRune(text, '\u20E3') && !strings.Contains(text, "\U0001F51F") {
		return text
	}
	for n := len(l.NumberGlyphs) - 1; n >= 0; n-- {
		glyph := l.NumberGlyphs[n]
		text = strings.ReplaceAll(text, glyph, strconv.Itoa(n))
		// Keycaps are also sent without the variation selector.
		if bare := strings.Replace(glyph, "\uFE0F", "", 1); bare != glyph {
			text = strings.ReplaceAll(text, bare, strconv.Itoa(n))
		}
	}
	return text
}
