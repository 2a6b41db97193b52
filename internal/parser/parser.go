// Package parser turns forwarded chat text into structured signals.
//
// Parsing is total and side-effect free: text that carries nothing the
// lexicon recognises yields an empty Message, never an error.
package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/example/statusboard/internal/lexicon"
	"github.com/example/statusboard/internal/localtime"
)

// Kind is the classification of one subject within one line. The order of
// the constants is the dispatch precedence.
type Kind string

const (
	KindNone               Kind = "none"
	KindCancel             Kind = "cancel"
	KindNewSession         Kind = "new_session"
	KindResume             Kind = "resume"
	KindEnd                Kind = "end"
	KindCorrectionWithTime Kind = "correction_time"
	KindStart              Kind = "start"
	KindCorrection         Kind = "correction"
)

// Context carries the request-scoped facts the parser needs.
type Context struct {
	// SubjectNames are the names of the active slots that may be matched.
	SubjectNames []string
	// ReceivedAt anchors manual time expressions to a calendar day.
	ReceivedAt localtime.Time
}

// ParsedMessage is the reading of one subject within one line.
type ParsedMessage struct {
	Line          int
	RoomNumber    string
	InheritedRoom bool
	ActorName     string
	SubjectName   string
	Kind          Kind
	Signals       lexicon.Signals
	IsCorrection  bool
	IsDesignated  bool
	FareToken     string
	// UsageDuration is set when the end token is preceded by an explicit number.
	UsageDuration *float64
	// ManualTime is set when the subject's text carries a clock expression.
	ManualTime *localtime.Time
	Section    string
}

// HasRoom reports whether a room number was read or inherited.
func (p ParsedMessage) HasRoom() bool { return p.RoomNumber != "" }

// Transfer is an actor moving subjects between two rooms.
type Transfer struct {
	Line         int
	FromRoom     string
	ToRoom       string
	SubjectNames []string
}

// Message is the complete reading of one inbound text.
type Message struct {
	Text         string
	IsCorrection bool
	Subjects     []ParsedMessage
	Transfers    []Transfer
	// Rooms lists every room number read from the text, in order of appearance.
	Rooms []string
	// KeepAliveRooms are rooms mentioned on extension or resume lines that
	// name no registered subject.
	KeepAliveRooms []string
	// Unresolved are name candidates next to a signal that match no subject.
	Unresolved []string
	Designated *DesignatedSection
}

// Empty reports whether the message carries nothing actionable.
func (m Message) Empty() bool {
	return len(m.Subjects) == 0 && len(m.Transfers) == 0 && m.Designated == nil
}

// Parser reads messages against a lexicon.
type Parser struct {
	lex        *lexicon.Lexicon
	durationRe *regexp.Regexp
}

// New returns a parser for lex. A nil lexicon uses lexicon.Default.
func New(lex *lexicon.Lexicon) *Parser {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Parser{lex: lex, durationRe: durationPattern(lex)}
}

// Lexicon returns the vocabulary used by the parser.
func (p *Parser) Lexicon() *lexicon.Lexicon { return p.lex }

// Normalize applies the text canonicalisation used before matching.
func (p *Parser) Normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return p.lex.DecodeGlyphs(text)
}

// Parse reads text line by line. Lines without their own room number inherit
// the room of the previous line. Lines after a designated divider are read
// only as the designated section.
func (p *Parser) Parse(text string, ctx Context) Message {
	text = p.Normalize(text)
	msg := Message{Text: text}

	lines := strings.Split(text, "\n")
	if idx := designatedDividerIndex(lines); idx >= 0 {
		section := parseDesignatedEntries(lines[idx+1:])
		msg.Designated = &section
		lines = lines[:idx]
	}

	names := sortedNames(ctx.SubjectNames)
	msg.IsCorrection = p.startsWith(strings.TrimSpace(text), lexicon.SignalCorrection)

	seenRooms := make(map[string]bool)
	addRoom := func(room string) {
		if room != "" && !seenRooms[room] {
			seenRooms[room] = true
			msg.Rooms = append(msg.Rooms, room)
		}
	}

	currentRoom := ""
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		hits := findSubjects(line, names)
		lineSignals := p.lex.Detect(line)

		if lineSignals.Has(lexicon.SignalTransfer) {
			if rooms := roomNumbers(line); len(rooms) >= 2 {
				transfer := Transfer{Line: i, FromRoom: rooms[0], ToRoom: rooms[len(rooms)-1]}
				for _, hit := range hits {
					transfer.SubjectNames = append(transfer.SubjectNames, hit.name)
				}
				msg.Transfers = append(msg.Transfers, transfer)
				addRoom(transfer.FromRoom)
				addRoom(transfer.ToRoom)
				currentRoom = transfer.ToRoom
				continue
			}
		}

		firstName := len(line)
		if len(hits) > 0 {
			firstName = hits[0].start
		}
		room, roomEnd := extractRoomNumber(line, firstName)
		inherited := false
		if room == "" {
			room = currentRoom
			inherited = room != ""
		} else {
			currentRoom = room
			addRoom(room)
		}

		if len(hits) == 0 {
			if room != "" && lineSignals.Any(lexicon.SignalExtension, lexicon.SignalResume) {
				msg.KeepAliveRooms = appendUnique(msg.KeepAliveRooms, room)
			}
			if candidate := p.unresolvedCandidate(line); candidate != "" {
				msg.Unresolved = appendUnique(msg.Unresolved, candidate)
			}
			continue
		}

		lineCorrection := msg.IsCorrection || p.startsWith(line, lexicon.SignalCorrection)
		actor := actorName(line, roomEnd, hits[0].start)

		for j, hit := range hits {
			sectionEnd := len(line)
			if j+1 < len(hits) {
				sectionEnd = hits[j+1].start
			}
			section := line[hit.end:sectionEnd]
			parsed := p.parseSubject(section, room, lineSignals, ctx.ReceivedAt, lineCorrection)
			parsed.Line = i
			parsed.RoomNumber = room
			parsed.InheritedRoom = inherited
			parsed.ActorName = actor
			parsed.SubjectName = hit.name
			parsed.Kind = classify(parsed)
			msg.Subjects = append(msg.Subjects, parsed)
		}
	}
	return msg
}

// parseSubject reads the signals that apply to one subject section.
func (p *Parser) parseSubject(section, room string, lineSignals lexicon.Signals, receivedAt localtime.Time, correction bool) ParsedMessage {
	signals := p.lex.Detect(section)
	parsed := ParsedMessage{
		Signals:      signals,
		IsCorrection: correction || signals.Has(lexicon.SignalCorrection),
		Section:      strings.TrimSpace(section),
		IsDesignated: signals.Any(lexicon.SignalDesignated, lexicon.SignalDesignatedFee, lexicon.SignalDesignatedHalfFee),
	}

	// The end token may sit anywhere on the line, but extension and fee
	// notices for this subject are never an end.
	blocksEnd := signals.Any(lexicon.SignalExtension, lexicon.SignalDesignatedFee, lexicon.SignalDesignatedHalfFee)
	parsed.Signals = cloneSignals(signals)
	if (signals.Has(lexicon.SignalEnd) || lineSignals.Has(lexicon.SignalEnd)) && !blocksEnd {
		parsed.Signals[lexicon.SignalEnd] = true
		parsed.UsageDuration = p.usageDuration(section)
	} else {
		delete(parsed.Signals, lexicon.SignalEnd)
	}

	timeText := section
	if token, ok := p.lex.FindFare(section); ok {
		parsed.FareToken = token
		timeText = strings.Replace(timeText, token, " ", 1)
	}
	timeText = p.stripDuration(timeText)
	timeText = stripRoom(timeText, room)

	if !receivedAt.IsZero() {
		allowShort := parsed.IsCorrection && !parsed.Signals.Has(lexicon.SignalEnd)
		if manual, ok := ExtractManualTime(timeText, receivedAt, allowShort); ok {
			parsed.ManualTime = &manual
		}
	}
	return parsed
}

// classify applies the dispatch precedence to a parsed subject.
func classify(p ParsedMessage) Kind {
	s := p.Signals
	switch {
	case s.Has(lexicon.SignalCancel):
		return KindCancel
	case s.Has(lexicon.SignalNewSession) && p.HasRoom():
		return KindNewSession
	case s.Has(lexicon.SignalResume):
		return KindResume
	case s.Has(lexicon.SignalEnd):
		return KindEnd
	case p.IsCorrection && p.ManualTime != nil:
		return KindCorrectionWithTime
	case p.HasRoom() && !p.IsCorrection && !s.Any(lexicon.SignalExtension, lexicon.SignalDesignatedFee, lexicon.SignalDesignatedHalfFee):
		return KindStart
	case p.IsCorrection && p.HasRoom():
		return KindCorrection
	default:
		return KindNone
	}
}

// startsWith reports whether text begins with a token of kind, where the
// token is not the prefix of a longer signal.
func (p *Parser) startsWith(text string, kind lexicon.SignalKind) bool {
	found, _, ok := p.lex.SignalTokenAt(strings.TrimSpace(text))
	return ok && found == kind
}

// unresolvedCandidate returns the word immediately preceding the first
// signal or fare token of a line that matched no subject.
func (p *Parser) unresolvedCandidate(line string) string {
	words := strings.Fields(line)
	for i, word := range words {
		for offset := 0; offset < len(word); {
			rest := word[offset:]
			_, _, isSignal := p.lex.SignalTokenAt(rest)
			fare, isFare := p.lex.FindFare(rest)
			isFare = isFare && strings.HasPrefix(rest, fare)
			if isSignal || isFare {
				if offset > 0 {
					return candidateName(word[:offset])
				}
				if i > 0 {
					return candidateName(words[i-1])
				}
				break
			}
			_, size := utf8.DecodeRuneInString(rest)
			offset += size
		}
	}
	return ""
}

func candidateName(word string) string {
	word = strings.TrimFunc(word, func(r rune) bool { return !isSyllable(r) && !unicode.IsLetter(r) })
	if word == "" || isNumeric(word) {
		return ""
	}
	for _, r := range word {
		if !isSyllable(r) {
			return ""
		}
	}
	return word
}

func actorName(line string, roomEnd, nameStart int) string {
	if roomEnd < 0 || roomEnd > nameStart {
		roomEnd = 0
	}
	between := strings.Fields(line[roomEnd:nameStart])
	for _, word := range between {
		if word == "호" || isNumeric(word) {
			continue
		}
		return word
	}
	return ""
}

type subjectHit struct {
	name       string
	start, end int
}

// findSubjects locates registered names in line. A word matches a name when
// it equals the name or begins with it and continues with a rune that is not
// a Hangul syllable ("도아ㄲ", "도아1.5ㄲ").
func findSubjects(line string, names []string) []subjectHit {
	var hits []subjectHit
	taken := make(map[string]bool)
	offset := 0
	for _, word := range strings.Fields(line) {
		start := strings.Index(line[offset:], word) + offset
		offset = start + len(word)
		for _, name := range names {
			if !strings.HasPrefix(word, name) {
				continue
			}
			if len(word) > len(name) {
				next, _ := utf8.DecodeRuneInString(word[len(name):])
				if isSyllable(next) {
					continue
				}
			}
			if taken[name] {
				break
			}
			taken[name] = true
			hits = append(hits, subjectHit{name: name, start: start, end: start + len(name)})
			break
		}
	}
	return hits
}

// sortedNames returns unique, non-empty names with longer names first so
// that "도아라" is preferred over "도아".
func sortedNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = norm.NFC.String(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}

func isSyllable(r rune) bool { return r >= 0xAC00 && r <= 0xD7A3 }

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}

func cloneSignals(s lexicon.Signals) lexicon.Signals {
	out := make(lexicon.Signals, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	return out
}
