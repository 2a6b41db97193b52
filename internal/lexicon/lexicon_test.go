package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectPrefersLongerTokens(t *testing.T) {
	lex := Default()

	cases := []struct {
		name    string
		text    string
		want    []SignalKind
		notWant []SignalKind
	}{
		{name: "resume hides correction", text: "도아 ㅈㅈㅎ", want: []SignalKind{SignalResume}, notWant: []SignalKind{SignalCorrection}},
		{name: "new session hides resume", text: "도아 ㅎㅅㄱㅈㅈㅎ", want: []SignalKind{SignalNewSession}, notWant: []SignalKind{SignalResume, SignalCorrection}},
		{name: "designated fee hides designated", text: "도아 ㅈㅁㅅㅅ", want: []SignalKind{SignalDesignatedFee}, notWant: []SignalKind{SignalDesignated}},
		{name: "alias detected", text: "도아 끝", want: []SignalKind{SignalEnd}},
		{name: "correction and end together", text: "ㅈㅈ 도아 1.5ㄲ", want: []SignalKind{SignalCorrection, SignalEnd}},
		{name: "plain chatter", text: "안녕하세요", notWant: []SignalKind{SignalEnd, SignalCancel, SignalCorrection}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := lex.Detect(tc.text)
			for _, kind := range tc.want {
				if !got.Has(kind) {
					t.Fatalf("expected %s in %q, got %v", kind, tc.text, got)
				}
			}
			for _, kind := range tc.notWant {
				if got.Has(kind) {
					t.Fatalf("did not expect %s in %q, got %v", kind, tc.text, got)
				}
			}
		})
	}
}

func TestEvaluateFareFirstMatchWins(t *testing.T) {
	lex := Default()

	cases := []struct {
		token string
		want  float64
		rule  string
		ok    bool
	}{
		{token: "ㅃ2", want: 2, rule: "count", ok: true},
		{token: "ㅃ 1.5", want: 1.5, rule: "count", ok: true},
		{token: "ㅃ", want: 1, rule: "bare", ok: true},
		{token: "xyz", want: 0, ok: false},
		{token: "", want: 0, ok: false},
	}

	for _, tc := range cases {
		got, rule, ok := lex.EvaluateFare(tc.token)
		if got != tc.want || rule != tc.rule || ok != tc.ok {
			t.Fatalf("EvaluateFare(%q) = (%v, %q, %v), expected (%v, %q, %v)", tc.token, got, rule, ok, tc.want, tc.rule, tc.ok)
		}
	}
}

func TestFindFare(t *testing.T) {
	lex := Default()
	token, ok := lex.FindFare("703 이승기 도아 ㅃ2")
	if !ok || token != "ㅃ2" {
		t.Fatalf("expected fare token ㅃ2, got %q (ok=%v)", token, ok)
	}
	if _, ok := lex.FindFare("703 이승기 도아"); ok {
		t.Fatalf("expected no fare token")
	}
}

func TestGlyphs(t *testing.T) {
	lex := Default()
	if lex.Glyph(3) != "3\uFE0F\u20E3" {
		t.Fatalf("unexpected glyph for 3: %q", lex.Glyph(3))
	}
	if lex.Glyph(10) != "\U0001F51F" {
		t.Fatalf("unexpected glyph for 10: %q", lex.Glyph(10))
	}
	if lex.Glyph(11) != "11" {
		t.Fatalf("expected decimal fallback, got %q", lex.Glyph(11))
	}
	if got := lex.DecodeGlyphs("ㅃ2\uFE0F\u20E3 7\u20E3"); got != "ㅃ2 7" {
		t.Fatalf("unexpected decoded text %q", got)
	}
}

func TestLoadFileMergesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	content := `
signals:
  - kind: end
    code: ㄲ
    aliases: [끝, 종료]
fare_rules:
  - name: won
    pattern: 'ㅃ(\d+)'
  - name: fallback
    pattern: 'ㅃ'
    value: 0.5
fare_default: 0.25
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write lexicon file: %v", err)
	}

	lex, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if !lex.Detect("도아 종료").Has(SignalEnd) {
		t.Fatalf("expected override alias to be recognised")
	}
	if !lex.Detect("도아 ㄱㅌ").Has(SignalCancel) {
		t.Fatalf("expected unlisted signals to keep their defaults")
	}
	if v, rule, _ := lex.EvaluateFare("ㅃ"); v != 0.5 || rule != "fallback" {
		t.Fatalf("expected fallback rule 0.5, got %v via %q", v, rule)
	}
	if v, _, ok := lex.EvaluateFare("none"); ok || v != 0.25 {
		t.Fatalf("expected default 0.25, got %v (ok=%v)", v, ok)
	}
}

func TestParseRejectsInvalidTables(t *testing.T) {
	cases := map[string]string{
		"unknown kind":     "signals:\n  - kind: teleport\n    code: ㅌㅍ\n",
		"bad pattern":      "fare_rules:\n  - name: broken\n    pattern: '('\n",
		"overlapping rule": "ticket_rules:\n  - {name: a, min_minutes: 1, max_minutes: 20}\n  - {name: b, min_minutes: 10, max_minutes: 30}\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(content)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
