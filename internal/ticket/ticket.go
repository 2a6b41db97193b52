// Package ticket converts fare codes and usage time into billable counts.
package ticket

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/example/statusboard/internal/lexicon"
	"github.com/example/statusboard/internal/localtime"
)

// NoTimeRule names the result for a zero or negative usage length.
const NoTimeRule = "시간없음"

// Calculator evaluates the lexicon's fare and ticket tables.
type Calculator struct {
	lex *lexicon.Lexicon
}

// New returns a calculator for lex. A nil lexicon uses lexicon.Default.
func New(lex *lexicon.Lexicon) *Calculator {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Calculator{lex: lex}
}

// ComputeTickets maps a fare token to its ticket count. Unknown or empty
// tokens yield the lexicon default and ok false.
func (c *Calculator) ComputeTickets(fareToken string) (count float64, ok bool) {
	count, _, ok = c.lex.EvaluateFare(fareToken)
	return count, ok
}

// Result is the time-based ticket classification of one session.
type Result struct {
	Minutes     int
	RuleName    string
	HalfTickets float64
	FullTickets float64
	Free        bool
}

// Total returns the combined ticket count.
func (r Result) Total() float64 { return r.HalfTickets + r.FullTickets }

// ForMinutes classifies a usage length. Up to an hour the rule table applies
// directly; beyond it every whole hour is one full ticket and the remainder is
// classified by the table.
func (c *Calculator) ForMinutes(minutes int) Result {
	if minutes <= 0 {
		return Result{Minutes: minutes, RuleName: NoTimeRule, Free: true}
	}
	if minutes <= 60 {
		if rule, ok := c.findRule(minutes); ok {
			return Result{
				Minutes:     minutes,
				RuleName:    rule.Name,
				HalfTickets: rule.HalfTickets,
				FullTickets: rule.FullTickets,
				Free:        rule.Free,
			}
		}
	}

	hours := minutes / 60
	result := Result{
		Minutes:     minutes,
		RuleName:    fmt.Sprintf("완티%d", hours),
		FullTickets: float64(hours),
	}
	if rule, ok := c.findRule(minutes % 60); ok {
		result.HalfTickets = rule.HalfTickets
		result.FullTickets += rule.FullTickets
		result.RuleName += "+" + rule.Name
	}
	return result
}

// ForSession classifies the usage between start and end, carrying over
// midnight when end's time of day precedes start's.
func (c *Calculator) ForSession(start, end localtime.Time) Result {
	return c.ForMinutes(DurationMinutes(start, end))
}

func (c *Calculator) findRule(minutes int) (lexicon.TicketRule, bool) {
	for _, rule := range c.lex.TicketRules {
		if minutes >= rule.MinMinutes && minutes <= rule.MaxMinutes {
			return rule, true
		}
	}
	return lexicon.TicketRule{}, false
}

// DurationMinutes returns the whole minutes from start to end. When only the
// times of day are comparable (end earlier than start) the span is taken
// across midnight.
func DurationMinutes(start, end localtime.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	minutes := int(end.Sub(start) / time.Minute)
	if minutes < 0 {
		minutes = end.MinuteOfDay() - start.MinuteOfDay()
		if minutes < 0 {
			minutes += localtime.MinutesPerDay
		}
	}
	return minutes
}

// UsageHours returns the elapsed hours between start and end rounded to two
// decimals. It is zero when end precedes start.
func UsageHours(start, end localtime.Time) float64 {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	hours := end.Sub(start).Hours()
	return math.Round(hours*100) / 100
}

// EventCount is the integer event count recorded for a usage duration.
// Every write site derives event_count through this function.
func EventCount(usage float64) int {
	if usage <= 0 || math.IsNaN(usage) {
		return 0
	}
	return int(math.Floor(usage))
}

// FormatBody formats a ticket total with one decimal.
func FormatBody(total float64) string {
	return strconv.FormatFloat(total, 'f', 1, 64)
}

// SessionLine is one row of a footer summary.
type SessionLine struct {
	RoomNumber string
	Start      localtime.Time
	End        localtime.Time
	Tickets    Result
	FareAmount float64
}

// NumberGlyphs renders n with keycap glyphs; numbers above ten are spelled digit by digit.
func (c *Calculator) NumberGlyphs(n int) string {
	if n >= 0 && n <= 10 {
		return c.lex.Glyph(n)
	}
	var b strings.Builder
	for _, digit := range strconv.Itoa(n) {
		b.WriteString(c.lex.Glyph(int(digit - '0')))
	}
	return b.String()
}

// FormatFooter renders one line per session, numbered with keycap glyphs,
// such as "703번방 14:00~14:45 (완티 1)" or "802번방 15:00~15:25 (반티 0.5) 차비2".
func (c *Calculator) FormatFooter(sessions []SessionLine) string {
	lines := make([]string, 0, len(sessions))
	for i, session := range sessions {
		line := fmt.Sprintf("%s %s번방 %s~%s", c.NumberGlyphs(i+1), session.RoomNumber, clockOf(session.Start), clockOf(session.End))

		var parts []string
		if session.Tickets.HalfTickets > 0 {
			parts = append(parts, "반티 "+trimFloat(session.Tickets.HalfTickets))
		}
		if session.Tickets.FullTickets > 0 {
			parts = append(parts, "완티 "+trimFloat(session.Tickets.FullTickets))
		}
		if len(parts) > 0 {
			line += " (" + strings.Join(parts, ", ") + ")"
		}
		if session.FareAmount > 0 {
			line += " 차비" + trimFloat(session.FareAmount)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func clockOf(t localtime.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.ClockString()
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
