package lexicon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat mirrors the YAML override file. Absent sections keep the defaults.
type fileFormat struct {
	Signals      []Signal     `yaml:"signals"`
	FareRules    []FareRule   `yaml:"fare_rules"`
	FareDefault  *float64     `yaml:"fare_default"`
	TicketRules  []TicketRule `yaml:"ticket_rules"`
	NumberGlyphs []string     `yaml:"number_glyphs"`
}

// LoadFile reads a YAML override file and merges it over Default.
//
// Signals are merged by kind: a listed kind replaces the code and aliases of
// the built-in declaration. Fare rules, ticket rules and glyphs replace the
// built-in tables wholesale when present, because their order is significant.
func LoadFile(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse merges YAML override data over Default.
func Parse(data []byte) (*Lexicon, error) {
	var file fileFormat
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("lexicon: decode: %w", err)
	}

	lex := Default()
	for _, override := range file.Signals {
		replaced := false
		for i := range lex.Signals {
			if lex.Signals[i].Kind == override.Kind {
				lex.Signals[i] = override
				replaced = true
				break
			}
		}
		if !replaced {
			lex.Signals = append(lex.Signals, override)
		}
	}
	if len(file.FareRules) > 0 {
		lex.FareRules = file.FareRules
	}
	if file.FareDefault != nil {
		lex.FareDefault = *file.FareDefault
	}
	if len(file.TicketRules) > 0 {
		lex.TicketRules = file.TicketRules
	}
	if len(file.NumberGlyphs) > 0 {
		lex.NumberGlyphs = file.NumberGlyphs
	}

	if err := lex.compile(); err != nil {
		return nil, fmt.Errorf("lexicon: %w", err)
	}
	return lex, nil
}
