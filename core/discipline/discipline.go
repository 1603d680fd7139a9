// Package discipline maps a student's free-text program name to its
// progression configuration: belt-graded (optionally with stripes) or
// level-graded. The registry is compiled in and not editable at runtime.
package discipline

import "strings"

type Type string

const (
	TypeBelt  Type = "belt"
	TypeLevel Type = "level"
)

// DefaultMaxStripes bounds stripe accumulation within a belt for stripe
// disciplines; reaching it signals promotion review, nothing automatic.
const DefaultMaxStripes = 4

type Config struct {
	Name       string   `json:"name"`
	Type       Type     `json:"type"`
	HasStripes bool     `json:"has_stripes"`
	MaxStripes int      `json:"max_stripes,omitempty"`
	Ranks      []string `json:"ranks"` // ordered low -> high
}

// RankIndex returns the position of a belt/level name within the ordered rank
// list, or -1 when unknown. Matching is case-insensitive.
func (c *Config) RankIndex(rank string) int {
	for i, r := range c.Ranks {
		if strings.EqualFold(r, rank) {
			return i
		}
	}
	return -1
}

var registry = []Config{
	{
		Name:  "Karate",
		Type:  TypeBelt,
		Ranks: []string{"White", "Yellow", "Orange", "Green", "Blue", "Purple", "Brown", "Black"},
	},
	{
		Name:  "Taekwondo",
		Type:  TypeBelt,
		Ranks: []string{"White", "Yellow", "Green", "Blue", "Red", "Black"},
	},
	{
		Name:       "Brazilian Jiu-Jitsu",
		Type:       TypeBelt,
		HasStripes: true, // IBJJF-style stripe system
		MaxStripes: DefaultMaxStripes,
		Ranks:      []string{"White", "Blue", "Purple", "Brown", "Black"},
	},
	{
		Name:  "Judo",
		Type:  TypeBelt,
		Ranks: []string{"White", "Yellow", "Orange", "Green", "Blue", "Brown", "Black"},
	},
	{
		Name:  "Kickboxing",
		Type:  TypeLevel,
		Ranks: []string{"Beginner", "Intermediate", "Advanced", "Competition"},
	},
	{
		Name:  "Strength & Conditioning",
		Type:  TypeLevel,
		Ranks: []string{"Foundation", "Development", "Performance"},
	},
}

// Get resolves a program name to its configuration: exact match first, then a
// case-insensitive pass. Returns nil for an unknown program; callers must then
// skip progression handling entirely.
func Get(program string) *Config {
	for i := range registry {
		if registry[i].Name == program {
			return &registry[i]
		}
	}
	for i := range registry {
		if strings.EqualFold(registry[i].Name, program) {
			return &registry[i]
		}
	}
	return nil
}

// All lists every registered configuration.
func All() []Config {
	out := make([]Config, len(registry))
	copy(out, registry)
	return out
}

// Derived predicates; all return false (not an error) for unknown programs.

func IsBelt(program string) bool {
	cfg := Get(program)
	return cfg != nil && cfg.Type == TypeBelt
}

func IsLevel(program string) bool {
	cfg := Get(program)
	return cfg != nil && cfg.Type == TypeLevel
}

func HasStripes(program string) bool {
	cfg := Get(program)
	return cfg != nil && cfg.HasStripes
}
