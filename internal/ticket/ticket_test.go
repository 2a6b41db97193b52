package ticket

import (
	"math"
	"testing"
	"time"

	"github.com/example/statusboard/internal/localtime"
)

func TestComputeTickets(t *testing.T) {
	calc := New(nil)

	cases := []struct {
		token string
		want  float64
		ok    bool
	}{
		{token: "ㅃ2", want: 2, ok: true},
		{token: "ㅃ", want: 1, ok: true},
		{token: "", want: 0, ok: false},
		{token: "??", want: 0, ok: false},
	}
	for _, tc := range cases {
		got, ok := calc.ComputeTickets(tc.token)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ComputeTickets(%q) = (%v, %v), expected (%v, %v)", tc.token, got, ok, tc.want, tc.ok)
		}
	}
}

func TestForMinutes(t *testing.T) {
	calc := New(nil)

	cases := []struct {
		minutes int
		name    string
		half    float64
		full    float64
		free    bool
	}{
		{minutes: 0, name: NoTimeRule, free: true},
		{minutes: 5, name: "무료", free: true},
		{minutes: 25, name: "반티", half: 0.5},
		{minutes: 60, name: "완티", full: 1},
		{minutes: 90, name: "완티1+반티", half: 0.5, full: 1},
		{minutes: 100, name: "완티1+완티", full: 2},
		{minutes: 120, name: "완티2", full: 2},
	}
	for _, tc := range cases {
		got := calc.ForMinutes(tc.minutes)
		if got.RuleName != tc.name || got.HalfTickets != tc.half || got.FullTickets != tc.full || got.Free != tc.free {
			t.Fatalf("ForMinutes(%d) = %+v, expected name=%s half=%v full=%v free=%v", tc.minutes, got, tc.name, tc.half, tc.full, tc.free)
		}
	}
}

func TestEventCountIsFloorOfUsage(t *testing.T) {
	for _, usage := range []float64{0, 0.25, 0.99, 1, 1.5, 2.01, 7.999, 12} {
		if got := EventCount(usage); got != int(math.Floor(usage)) {
			t.Fatalf("EventCount(%v) = %d, expected %d", usage, got, int(math.Floor(usage)))
		}
	}
	if EventCount(-1) != 0 {
		t.Fatalf("negative usage must not produce events")
	}
}

func TestUsageHoursAndDuration(t *testing.T) {
	start := localtime.Date(2025, time.March, 1, 23, 30, 0)
	end := localtime.Date(2025, time.March, 2, 1, 0, 0)

	if got := UsageHours(start, end); got != 1.5 {
		t.Fatalf("expected 1.5 hours, got %v", got)
	}
	if got := DurationMinutes(start, end); got != 90 {
		t.Fatalf("expected 90 minutes, got %d", got)
	}
	if got := UsageHours(end, start); got != 0 {
		t.Fatalf("expected zero for reversed range, got %v", got)
	}
	if got := UsageHours(start, start.Add(20*time.Minute)); got != 0.33 {
		t.Fatalf("expected rounding to 0.33, got %v", got)
	}
}

func TestWindowContains(t *testing.T) {
	at := func(h, m int) localtime.Time { return localtime.Date(2025, time.March, 1, h, m, 0) }

	day, err := ParseWindow("18:00", "21:00")
	if err != nil {
		t.Fatalf("ParseWindow returned error: %v", err)
	}
	overnight, err := ParseWindow("22:00", "02:00")
	if err != nil {
		t.Fatalf("ParseWindow returned error: %v", err)
	}
	stored, err := ParseWindow("18:00:00", "23:00:00")
	if err != nil {
		t.Fatalf("ParseWindow returned error for bounds with seconds: %v", err)
	}

	cases := []struct {
		name   string
		window Window
		at     localtime.Time
		want   bool
	}{
		{name: "inside", window: day, at: at(19, 0), want: true},
		{name: "start inclusive", window: day, at: at(18, 0), want: true},
		{name: "end exclusive", window: day, at: at(21, 0), want: false},
		{name: "overnight before midnight", window: overnight, at: at(23, 0), want: true},
		{name: "overnight after midnight", window: overnight, at: at(1, 59), want: true},
		{name: "overnight outside", window: overnight, at: at(12, 0), want: false},
		{name: "bounds with seconds", window: stored, at: at(19, 0), want: true},
		{name: "bounds with seconds end exclusive", window: stored, at: at(23, 0), want: false},
		{name: "empty window", window: Window{StartMinute: 60, EndMinute: 60}, at: at(1, 0), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.window.Contains(tc.at); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if _, err := ParseWindow("25:00", "02:00"); err == nil {
		t.Fatalf("expected error for invalid bound")
	}
}

func TestEventDay(t *testing.T) {
	from, to := EventDay(localtime.Date(2025, time.March, 2, 3, 0, 0))
	if from.String() != "2025-03-01 15:00:00" || to.String() != "2025-03-02 15:00:00" {
		t.Fatalf("unexpected event day %s - %s", from, to)
	}
	from, _ = EventDay(localtime.Date(2025, time.March, 2, 15, 0, 0))
	if from.String() != "2025-03-02 15:00:00" {
		t.Fatalf("expected boundary to start a new event day, got %s", from)
	}
}

func TestFormatFooter(t *testing.T) {
	calc := New(nil)
	sessions := []SessionLine{
		{
			RoomNumber: "703",
			Start:      localtime.Date(2025, time.March, 1, 14, 0, 0),
			End:        localtime.Date(2025, time.March, 1, 14, 45, 0),
			Tickets:    calc.ForMinutes(45),
		},
		{
			RoomNumber: "802",
			Start:      localtime.Date(2025, time.March, 1, 15, 0, 0),
			End:        localtime.Date(2025, time.March, 1, 15, 25, 0),
			Tickets:    calc.ForMinutes(25),
			FareAmount: 2,
		},
	}

	want := "1\uFE0F\u20E3 703번방 14:00~14:45 (완티 1)\n2\uFE0F\u20E3 802번방 15:00~15:25 (반티 0.5) 차비2"
	if got := calc.FormatFooter(sessions); got != want {
		t.Fatalf("unexpected footer:\n%s\nexpected:\n%s", got, want)
	}
	if got := calc.NumberGlyphs(12); got != "1\uFE0F\u20E32\uFE0F\u20E3" {
		t.Fatalf("unexpected glyphs for 12: %q", got)
	}
	if FormatBody(1.5) != "1.5" || FormatBody(2) != "2.0" {
		t.Fatalf("unexpected body formatting")
	}
}
